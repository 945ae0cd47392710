package template

import (
	"fmt"
	"io"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
)

const (
	fieldFlagRequired = 1 << 1
	maxFieldDepth     = 16
)

// extractFormFields walks the AcroForm field tree. Nested fields get their
// fully qualified dotted name, which is how grouped placeholders are written.
func extractFormFields(reader io.ReadSeeker) ([]FormField, error) {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed

	ctx, err := api.ReadContext(reader, conf)
	if err != nil {
		return nil, fmt.Errorf("failed to read PDF context: %w", err)
	}
	if err := ctx.EnsurePageCount(); err != nil {
		return nil, fmt.Errorf("failed to ensure page count: %w", err)
	}

	rootDict, err := ctx.Catalog()
	if err != nil {
		return nil, fmt.Errorf("failed to get catalog: %w", err)
	}

	fields := make([]FormField, 0)
	acroFormObj, found := rootDict.Find("AcroForm")
	if !found {
		return fields, nil
	}
	acroFormDict, err := ctx.DereferenceDict(acroFormObj)
	if err != nil {
		return nil, fmt.Errorf("failed to dereference AcroForm: %w", err)
	}
	if acroFormDict == nil {
		return fields, nil
	}

	fieldsObj, found := acroFormDict.Find("Fields")
	if !found {
		return fields, nil
	}
	fieldsArray, err := ctx.DereferenceArray(fieldsObj)
	if err != nil {
		return nil, fmt.Errorf("failed to dereference Fields array: %w", err)
	}

	for _, fieldRef := range fieldsArray {
		fields = collectFormField(ctx, fieldRef, "", 0, fields)
	}
	return fields, nil
}

func collectFormField(ctx *model.Context, fieldObj types.Object, parent string, depth int, out []FormField) []FormField {
	if depth > maxFieldDepth {
		return out
	}
	fieldDict, err := ctx.DereferenceDict(fieldObj)
	if err != nil || fieldDict == nil {
		return out
	}

	name := parent
	if nameObj, found := fieldDict.Find("T"); found {
		if partial, err := ctx.DereferenceStringOrHexLiteral(nameObj, model.V10, nil); err == nil && partial != "" {
			if name != "" {
				name += "." + partial
			} else {
				name = partial
			}
		}
	}

	// Kids carrying their own partial name are child fields; kids without one
	// are widget annotations of this field.
	childFields := 0
	if kidsObj, found := fieldDict.Find("Kids"); found {
		if kids, err := ctx.DereferenceArray(kidsObj); err == nil {
			for _, kid := range kids {
				kidDict, err := ctx.DereferenceDict(kid)
				if err != nil || kidDict == nil {
					continue
				}
				if _, named := kidDict.Find("T"); !named {
					continue
				}
				childFields++
				out = collectFormField(ctx, kid, name, depth+1, out)
			}
		}
	}
	if childFields > 0 || name == "" {
		return out
	}

	field := FormField{Name: name}
	if flagsObj, found := fieldDict.Find("Ff"); found {
		if flags, err := ctx.DereferenceInteger(flagsObj); err == nil && flags != nil {
			field.Required = (int(*flags) & fieldFlagRequired) != 0
		}
	}
	field.Options = extractFieldOptions(ctx, fieldDict)
	return append(out, field)
}

// extractFieldOptions extracts options for choice fields
func extractFieldOptions(ctx *model.Context, fieldDict types.Dict) []string {
	var options []string

	optObj, found := fieldDict.Find("Opt")
	if !found {
		return options
	}
	optArray, err := ctx.DereferenceArray(optObj)
	if err != nil {
		return options
	}

	for _, opt := range optArray {
		// Options can be strings or arrays of [export_value, display_value]
		if str, err := ctx.DereferenceStringOrHexLiteral(opt, model.V10, nil); err == nil {
			options = append(options, str)
		} else if arr, err := ctx.DereferenceArray(opt); err == nil && len(arr) >= 2 {
			if displayVal, err := ctx.DereferenceStringOrHexLiteral(arr[1], model.V10, nil); err == nil {
				options = append(options, displayVal)
			}
		}
	}
	return options
}

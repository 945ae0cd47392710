package descriptions

import "sort"

// Tool names exposed by the MCP server
const (
	ToolExtractPlaceholders = "template_extract_placeholders"
	ToolSessionOpen         = "form_session_open"
	ToolSessionAction       = "form_session_action"
	ToolSessionSnapshot     = "form_session_snapshot"
	ToolSessionCompile      = "form_session_compile"
	ToolSessionClose        = "form_session_close"
	ToolCatalogInfo         = "form_catalog_info"
	ToolServerInfo          = "form_server_info"
)

// Comprehensive tool descriptions with practical examples and use cases

const (
	// Template Tools
	ExtractPlaceholdersDescription = `List every {{placeholder}} token of a Word (.docx) or PDF template.

**When to use:** Need to see which fields a template expects before building a form, or to check a template for typos in its placeholders.

**Why it's useful:** Scans the body, headers, footers and notes of a DOCX (and the pages and AcroForm fields of a PDF) in document order, strips the delimiters and returns one normalized placeholder per distinct tag.

**Examples:**
• Inspect a contract: "Which fields does templates/contract.docx need?"
• Check a fillable PDF: "List the placeholders and form fields of onboarding.pdf"
• Spot typos: "Extract placeholders from offer-letter.docx and look for near-duplicate tags"

**Common workflows:**
1. Template Review: Extract placeholders → Compare with the catalog → Fix the template
2. Form Design: Extract placeholders → Open a session → Organize steps

**Best practices:** Read the warnings array; a malformed header or footer is skipped rather than failing the whole template.`

	// Session Tools
	SessionOpenDescription = `Start organizing the input fields of a template into form steps.

**When to use:** Beginning to design the mobile form for a template.

**Why it's useful:** Extracts the template and loads the placeholder catalog at the same time, enriches placeholders with their catalog types, separates organization-wide generic data from document specific input and starts an organizer session whose pool holds the input fields.

**Examples:**
• New form: "Open a form session for templates/lease.docx"
• Start over: "Open lease.docx again with reset=true to discard the current steps"

**Common workflows:**
1. Form Design: Open session → Select fields → Move them into steps → Compile
2. Resume: Open the same document_id without reset to get the existing session back

**Best practices:** Keep the returned session_id; every other form_session_* tool needs it. A catalog_error in the response means every field is treated as untyped input.`

	SessionActionDescription = `Apply one organizer action to a form session and return the new state.

**When to use:** Selecting fields, moving them between the pool and steps, reordering, renaming steps or editing options and values.

**Why it's useful:** Actions are applied one at a time in the order they arrive; the returned state includes the selection counts and whether move_right or move_left is currently possible.

**Action types:**
• toggle_select {tag, as_group}: select or deselect a field; as_group toggles its whole dotted group
• toggle_group {group}: select all or none of a group's fields in the pool
• toggle_step {step}: select all or none of the fields of a step
• move_right: move the selected pool fields into a new step
• move_left: return the selected step fields to the pool
• reorder_field {from_step, from_index, to_index}: reorder fields inside one step (to_step defaults to from_step)
• set_step_title {step, title}
• add_option {tag, raw}: add an option to a step field; \uXXXX escapes are decoded and HTML element tags stripped, other text is kept as typed
• remove_option {tag, value}: remove every option equal to value
• set_value {tag, value}: enter the value of a step field
• reset: go back to the initial pool

**Examples:**
• "Select Company.Name as a group and move it right"
• "Rename step 0 to Company details"

**Best practices:** Check can_move_right and can_move_left in the returned state before moving.`

	SessionSnapshotDescription = `Read the current organizer state of a form session without changing it.

**When to use:** Reviewing the pool and steps, or recovering the state after a lost response.

**Examples:**
• "Show the steps of session 6f1c..."

**Best practices:** Cheap and side-effect free; use it freely between actions.`

	SessionCompileDescription = `Compile the steps of a form session into the mobile form schema.

**When to use:** The steps are organized and the mobile client needs its schema, or you want to preview how the form will look.

**Why it's useful:** Standalone fields keep their order, dotted groups become one Repeatable field per step, labels are generated from the tags, and the result is validated against the wire contract before it is returned.

**Examples:**
• Publish: "Compile session 6f1c... with the entered values"
• Preview: "Compile session 6f1c... with preview=true"

**Common workflows:**
1. Preview: Compile with preview=true → Check labels and grouping → Adjust steps
2. Publish: Enter values → Compile → Hand the schema to the mobile client

**Best practices:** Preview mode fills every field with an example value (today's date for Date fields, placeholder images for Image fields) and two records per repeatable group.`

	SessionCloseDescription = `End a form session and release its state.

**When to use:** The form has been compiled, or the session is abandoned.

**Best practices:** Closed session ids are rejected by every other session tool.`

	// Catalog and Server Tools
	CatalogInfoDescription = `Describe the configured placeholder catalog.

**When to use:** Checking which catalog the server uses, which field types it knows and which placeholder type ids are reserved for generic and master-folder data.

**Examples:**
• "Which field types are available for form fields?"
• "Is the placeholder catalog reachable?"

**Best practices:** An error in the result does not stop sessions from opening; fields are then untyped.`

	ServerInfoDescription = `Get server status, available tools and the templates in the template directory.

**When to use:** Starting a conversation, discovering templates or checking limits.

**Examples:**
• "What templates can I build forms from?"
• "How many form sessions are open?"

**Best practices:** Use this first to learn the template directory and the organizer action types.`
)

// ToolDescriptions maps tool names to their comprehensive descriptions
var ToolDescriptions = map[string]string{
	ToolExtractPlaceholders: ExtractPlaceholdersDescription,
	ToolSessionOpen:         SessionOpenDescription,
	ToolSessionAction:       SessionActionDescription,
	ToolSessionSnapshot:     SessionSnapshotDescription,
	ToolSessionCompile:      SessionCompileDescription,
	ToolSessionClose:        SessionCloseDescription,
	ToolCatalogInfo:         CatalogInfoDescription,
	ToolServerInfo:          ServerInfoDescription,
}

// GetToolDescription returns the comprehensive description for a tool
func GetToolDescription(toolName string) string {
	if desc, exists := ToolDescriptions[toolName]; exists {
		return desc
	}
	return "Tool description not available"
}

// GetAllToolNames returns a sorted list of all available tool names
func GetAllToolNames() []string {
	names := make([]string, 0, len(ToolDescriptions))
	for name := range ToolDescriptions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

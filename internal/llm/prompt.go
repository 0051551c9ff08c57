package llm

import (
	"strings"
	"unicode/utf8"

	"github.com/savelyeva/docextract/internal/schema"
)

// maxDocumentChars bounds the document prefix embedded in the prompt so the
// request stays inside the model's context limit. Truncation is silent and
// deterministic: always the first maxDocumentChars bytes, backed off to a
// rune boundary.
const maxDocumentChars = 8000

const systemPrompt = "You are an expert invoice data extraction assistant. " +
	"You only output valid JSON matching the provided schema."

// BuildUserPrompt assembles the generation request: the invoice schema with
// per-field descriptions, the strict output-format instructions, and a
// bounded prefix of the document text.
func BuildUserPrompt(documentText string) string {
	var b strings.Builder

	b.WriteString("You are an expert AI assistant specializing in extracting structured data from invoice documents, regardless of language (e.g. English, German).\n\n")
	b.WriteString("Analyze the provided invoice text and extract the relevant information according to the JSON schema defined below.\n\n")
	b.WriteString("CRITICAL INSTRUCTIONS:\n")
	b.WriteString("1. Output format: return the extracted information ONLY as a single, valid JSON object. No introductory text, explanations, code block markers or apologies before or after the JSON.\n")
	b.WriteString("2. Schema adherence: the JSON object MUST strictly follow the structure, field names and data types of the schema. Pay close attention to the nested 'vendor', 'customer' and 'line_items' objects. Use the field descriptions as your guide.\n")
	b.WriteString("3. Mapping and language: use the field descriptions to map information correctly even when the terminology or language differs.\n")
	b.WriteString("4. Missing data: if a piece of information for a schema field cannot be reliably determined from the text, use the JSON value null for that field. Do not omit the key; represent absence explicitly with null.\n")
	b.WriteString("5. Inference: infer 'currency', 'due_date' and 'payment_status' only when clearly indicated or logically derivable. Default to null when ambiguous.\n")
	b.WriteString("6. Combined fields: populate 'payment_terms_or_notes' by concatenating payment instructions, deadlines, bank details and other miscellaneous notes. Use null when no such text exists.\n")
	b.WriteString("7. Line items: extract all distinct line items into 'line_items'. 'line_total' is the total for that line before tax.\n")
	b.WriteString("8. Unrecognized data: place relevant information that maps to no schema field into the corresponding 'other_data' object as key-value pairs with descriptive keys. Use null when a section has no extra data.\n\n")

	b.WriteString("Target JSON schema:\n")
	b.WriteString(schema.RenderJSONSchema())
	b.WriteString("\n\nInvoice text to analyze:\n")
	b.WriteString(truncateText(documentText, maxDocumentChars))
	b.WriteString("\n\nJSON output:\n")

	return b.String()
}

func truncateText(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	for limit > 0 && !utf8.RuneStart(s[limit]) {
		limit--
	}
	return s[:limit]
}

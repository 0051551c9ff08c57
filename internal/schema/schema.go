// Package schema defines the generalized invoice contract: the Go types the
// pipeline decodes into and the JSON-Schema description sent to the model and
// used to validate its output. Fields are pointers without omitempty so that
// "not extracted" always round-trips as an explicit JSON null.
package schema

// ContactInfo holds generalized contact details for a vendor or customer.
type ContactInfo struct {
	Name          *string        `json:"name"`
	Address       *string        `json:"address"`
	Email         *string        `json:"email"`
	Phone         *string        `json:"phone"`
	VATID         *string        `json:"vat_id"`
	CustomerID    *string        `json:"customer_id"`
	ContactPerson *string        `json:"contact_person"`
	OtherData     map[string]any `json:"other_data"`
}

// LineItem is one billed position. Quantity tolerates the string form some
// invoices use ("1,00") while the money fields coerce numeric strings.
type LineItem struct {
	Description *string        `json:"description"`
	Quantity    *FlexString    `json:"quantity"`
	UnitPrice   *FlexNumber    `json:"unit_price"`
	LineTotal   *FlexNumber    `json:"line_total"`
	OtherData   map[string]any `json:"other_data"`
}

// InvoiceData is the validated structured representation of an invoice.
type InvoiceData struct {
	InvoiceNumber *string `json:"invoice_number"`
	InvoiceDate   *string `json:"invoice_date"`
	DueDate       *string `json:"due_date"`
	InvoicePeriod *string `json:"invoice_period"`

	Vendor   *ContactInfo `json:"vendor"`
	Customer *ContactInfo `json:"customer"`

	LineItems []LineItem `json:"line_items"`

	Subtotal    *FlexNumber `json:"subtotal"`
	TaxAmount   *FlexNumber `json:"tax_amount"`
	TaxRate     *FlexString `json:"tax_rate"`
	TotalAmount *FlexNumber `json:"total_amount"`
	Currency    *string     `json:"currency"`

	PaymentStatus       *string        `json:"payment_status"`
	OrderNumber         *string        `json:"order_number"`
	PaymentTermsOrNotes *string        `json:"payment_terms_or_notes"`
	OtherData           map[string]any `json:"other_data"`
}

// InvoiceJSONSchema returns the formal contract description embedded in the
// model prompt and compiled for validation. Descriptions carry the synonyms
// (including German invoice terms) the model should look for.
func InvoiceJSONSchema() map[string]any {
	contact := func(side string) map[string]any {
		return map[string]any{
			"type":                 []string{"object", "null"},
			"description":          side,
			"additionalProperties": false,
			"properties": map[string]any{
				"name":           nullable("string", "Name of the company or person."),
				"address":        nullable("string", "Full address."),
				"email":          nullable("string", "Contact email address."),
				"phone":          nullable("string", "Contact phone number."),
				"vat_id":         nullable("string", "VAT identification number (e.g. 'USt-IdNr.'), if provided."),
				"customer_id":    nullable("string", "Customer identification number (e.g. 'Kundennr.'), if provided."),
				"contact_person": nullable("string", "Specific contact person name, if mentioned."),
				"other_data":     auxiliary(),
			},
		}
	}

	lineItem := map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties": map[string]any{
			"description": nullable("string", "Description of the item or service (e.g. 'Service Description', 'Leistungsbeschreibung')."),
			"quantity": map[string]any{
				"type":        []string{"number", "string", "null"},
				"description": "Quantity (e.g. 1, 1.00, '1'). Use a string if the format is unusual.",
			},
			"unit_price": money("Price per unit (e.g. 'Rate/Price', 'Unit Cost'). Might be absent."),
			"line_total": money("Total for this line before tax (e.g. 'Sub Total', 'Amount', 'Gesamtbetrag -ohne MwSt.-')."),
			"other_data": auxiliary(),
		},
	}

	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties": map[string]any{
			"invoice_number": nullable("string", "The main invoice identifier (e.g. 'Invoice Number', 'Rechnungsnummer')."),
			"invoice_date":   nullable("string", "Date the invoice was issued (e.g. 'Invoice Date', 'Datum'). Keep the original format."),
			"due_date":       nullable("string", "Payment due date. May need inference from payment terms. Keep the original format."),
			"invoice_period": nullable("string", "Billing period covered, if specified (e.g. 'Rechnungsperiode')."),
			"vendor":         contact("Details of the company sending the invoice (e.g. 'From', sender)."),
			"customer":       contact("Details of the company or person receiving the invoice (e.g. 'To', 'Bill To', recipient)."),
			"line_items": map[string]any{
				"type":        []string{"array", "null"},
				"description": "List of items or services being billed, in document order.",
				"items":       lineItem,
			},
			"subtotal":   money("Total amount before taxes (e.g. 'Sub Total', 'Gesamtbetrag -ohne MwSt.-')."),
			"tax_amount": money("Total tax charged (e.g. 'Tax', 'MwSt.')."),
			"tax_rate": map[string]any{
				"type":        []string{"number", "string", "null"},
				"description": "Tax rate applied, if specified (e.g. '19 %', '0%'). Can be a string or a number.",
			},
			"total_amount":   money("Final total including tax (e.g. 'Total', 'Total Due', 'Gesamtbetrag inkl. MwSt.')."),
			"currency":       nullable("string", "Currency symbol or code (e.g. '$', '€', 'USD', 'EUR'). Infer if possible."),
			"payment_status": nullable("string", "'PAID', 'Due', etc., only if clearly indicated."),
			"order_number":   nullable("string", "Order number associated with the invoice, if present."),
			"payment_terms_or_notes": nullable("string",
				"Payment terms, bank details (IBAN/BIC), instructions and other free-text notes, concatenated."),
			"other_data": auxiliary(),
		},
	}
}

func nullable(typ, desc string) map[string]any {
	return map[string]any{"type": []string{typ, "null"}, "description": desc}
}

func money(desc string) map[string]any {
	return map[string]any{"type": []string{"number", "string", "null"}, "description": desc}
}

func auxiliary() map[string]any {
	return map[string]any{
		"type":        []string{"object", "null"},
		"description": "Key-value pairs for relevant information that does not fit any named field. Never drop data; route it here.",
	}
}

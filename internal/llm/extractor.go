package llm

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/savelyeva/docextract/internal/schema"
	"github.com/savelyeva/docextract/internal/task"
)

// Extractor turns recovered document text into a validated InvoiceData.
type Extractor struct {
	client *Client
	log    *slog.Logger
}

func NewExtractor(client *Client, log *slog.Logger) *Extractor {
	if log == nil {
		log = slog.Default()
	}
	return &Extractor{client: client, log: log}
}

// ExtractInvoice makes exactly one outbound model call, parses the response
// as JSON and validates it against the invoice contract. An invalid
// structure is treated as no structure: validation failure fails the task,
// there is no partial success and no retry here.
func (e *Extractor) ExtractInvoice(ctx context.Context, documentText string) (*schema.InvoiceData, error) {
	content, err := e.client.Complete(ctx, systemPrompt, BuildUserPrompt(documentText))
	if err != nil {
		return nil, err
	}

	raw := []byte(content)
	if !json.Valid(raw) {
		// The offending payload goes to the log for diagnosis, never
		// to the caller.
		e.log.Error("model returned invalid JSON", "raw", truncateForLog(content, 2048))
		return nil, task.Errf(task.KindMalformedModelOutput, "model returned invalid JSON")
	}

	if err := schema.Validate(raw); err != nil {
		e.log.Error("model output failed schema validation", "error", err, "raw", truncateForLog(content, 2048))
		return nil, task.Errf(task.KindSchemaValidationFailed, "schema validation failed: %v", err)
	}

	var data schema.InvoiceData
	if err := json.Unmarshal(raw, &data); err != nil {
		e.log.Error("model output failed decoding", "error", err, "raw", truncateForLog(content, 2048))
		return nil, task.Errf(task.KindSchemaValidationFailed, "schema validation failed: %v", err)
	}

	return &data, nil
}

package task

import (
	"time"

	"github.com/savelyeva/docextract/internal/schema"
)

type Status string

const (
	StatusPending    Status = "PENDING"
	StatusProcessing Status = "PROCESSING"
	StatusCompleted  Status = "COMPLETED"
	StatusFailed     Status = "FAILED"
)

// Terminal reports whether no further transitions are possible.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Record is the durable unit of work. RawContent is carried only while the
// document still needs to be read: it is dropped from the stored copy as soon
// as processing begins and is never part of an external projection.
type Record struct {
	ID             string              `json:"id"`
	Status         Status              `json:"status"`
	SourceFilename string              `json:"source_filename"`
	MediaType      string              `json:"media_type"`
	RawContent     []byte              `json:"raw_content,omitempty"`
	Result         *schema.InvoiceData `json:"result"`
	Error          *ErrorDescriptor    `json:"error"`
	CreatedAt      time.Time           `json:"created_at"`
	UpdatedAt      time.Time           `json:"updated_at"`
}

// New builds a fresh PENDING record for a submitted document.
func New(id, filename, mediaType string, content []byte) *Record {
	now := time.Now().UTC()
	return &Record{
		ID:             id,
		Status:         StatusPending,
		SourceFilename: filename,
		MediaType:      mediaType,
		RawContent:     content,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

// Projection is the externally visible view of a record. It never carries
// the raw document bytes or the media type.
type Projection struct {
	ID     string              `json:"task_id"`
	Status Status              `json:"status"`
	Result *schema.InvoiceData `json:"result"`
	Error  *ErrorDescriptor    `json:"error"`
}

func (r *Record) Project() Projection {
	return Projection{
		ID:     r.ID,
		Status: r.Status,
		Result: r.Result,
		Error:  r.Error,
	}
}

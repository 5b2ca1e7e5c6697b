package docstore

import (
	"time"

	"github.com/ledgerlens/ledgerlens/internal/extract"
)

// Record is the stored outcome of processing one uploaded document.
type Record struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	ContentType string         `json:"content_type"`
	Filename    string         `json:"filename"` // stored original, relative to storage root
	Result      extract.Result `json:"result"`
	CreatedAt   time.Time      `json:"created_at"`
}

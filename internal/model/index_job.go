package model

import "time"

// IndexJob asks a worker to re-chunk a document and rebuild the index from it.
type IndexJob struct {
	ID           string    `json:"id"`
	DocumentPath string    `json:"document_path"`
	RequestedAt  time.Time `json:"requested_at"`
}

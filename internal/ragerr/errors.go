// Package ragerr holds the error taxonomy shared by every stage of the pipeline.
// Callers wrap a sentinel with fmt.Errorf("%w: ...") and match it with errors.Is.
package ragerr

import (
	"errors"
	"fmt"
)

var (
	ErrDocumentRead     = errors.New("document read failed")
	ErrEmbedding        = errors.New("embedding failed")
	ErrIndexNotFound    = errors.New("index not found")
	ErrAuthentication   = errors.New("model credential missing or rejected")
	ErrGeneration       = errors.New("generation failed")
	ErrInvalidInput     = errors.New("invalid input")
	ErrEmbedderMismatch = errors.New("embedder does not match index")

	// ErrEmbeddingCredential is an ErrAuthentication raised by the embedding provider.
	ErrEmbeddingCredential = fmt.Errorf("embedding %w", ErrAuthentication)
)

// Remediation returns a user-facing hint for err, or "" when there is nothing to add.
func Remediation(err error) string {
	switch {
	case errors.Is(err, ErrEmbeddingCredential):
		return "Set EMBEDDING_API_KEY to a valid key for the configured embedding provider, " +
			"or set EMBEDDING_PROVIDER=hashing to embed locally"
	case errors.Is(err, ErrAuthentication):
		return "Set LLM_API_KEY (or GOOGLE_API_KEY) to a valid key, or enter it interactively. " +
			"A Gemini key can be created at https://aistudio.google.com/app/apikey"
	case errors.Is(err, ErrIndexNotFound):
		return "Build the index first: ragctl chunk && ragctl index"
	case errors.Is(err, ErrEmbedderMismatch):
		return "Rebuild the index with the embedder configured for querying: ragctl index"
	case errors.Is(err, ErrDocumentRead):
		return "Check that the document path exists and points to a readable PDF or text file"
	case errors.Is(err, ErrGeneration):
		return "The model call failed; check network access and quota, then try again"
	default:
		return ""
	}
}

// Describe renders err together with its remediation hint.
func Describe(err error) string {
	if err == nil {
		return ""
	}
	hint := Remediation(err)
	if hint == "" {
		return err.Error()
	}
	return err.Error() + "\n" + hint
}

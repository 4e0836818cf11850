package model

// ChunkMetadata locates a chunk inside its source document.
type ChunkMetadata struct {
	Source   string `json:"source"`
	Page     int    `json:"page"`
	Position int    `json:"position"`
	Offset   int    `json:"offset"`
}

// Chunk is one overlapping window of document text, the unit of retrieval.
type Chunk struct {
	Text     string        `json:"text"`
	Metadata ChunkMetadata `json:"metadata"`
}

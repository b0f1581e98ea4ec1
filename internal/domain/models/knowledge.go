package models

// Chunk is one ranked result from the vector knowledge store.
type Chunk struct {
	Content  string        `json:"content"`
	Metadata ChunkMetadata `json:"metadata"`
}

// ChunkMetadata carries provenance for a knowledge chunk.
type ChunkMetadata struct {
	Title string                 `json:"title"`
	Type  string                 `json:"type"`
	Extra map[string]interface{} `json:"extra,omitempty"`
}

// FilterChunksByType returns only the chunks whose metadata type matches.
func FilterChunksByType(chunks []Chunk, t string) []Chunk {
	var out []Chunk
	for _, c := range chunks {
		if c.Metadata.Type == t {
			out = append(out, c)
		}
	}
	return out
}

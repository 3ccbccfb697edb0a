package domain

// KeyPrefix is the default namespace for every key the service owns in a shared store.
const KeyPrefix = "modcurator:"

// VectorConfig holds embedding settings shared by the catalog and the query embedder.
type VectorConfig struct {
	Model          string
	Dimensions     int
	DistanceMetric string
}

// DefaultVectorConfig matches the model the catalog embeddings were produced with.
func DefaultVectorConfig() VectorConfig {
	return VectorConfig{
		Model:          "sentence-transformers/all-MiniLM-L6-v2",
		Dimensions:     384,
		DistanceMetric: "cosine",
	}
}

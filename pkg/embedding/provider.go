package embedding

// Provider defines the interface for generating text embeddings
type Provider interface {
	Generate(text string) ([]float32, error)
}

// Dimensions is the fixed embedding width. Stored vectors are only
// comparable while every provider produces exactly this length.
const Dimensions = 256

package embedding

import "context"

// Provider contract
type Provider interface {
	// Embed generates one vector per input text using the specified model.
	// The output order matches the input order.
	Embed(ctx context.Context, model string, texts ...string) ([][]float32, error)
}

// modelDimensions maps known embedding model names to their output
// dimension. Unknown models return (0, false); the adapter layer then relies
// on the collection's declared dimension alone.
var modelDimensions = map[string]int{
	"text-embedding-3-small":  1536,
	"text-embedding-3-large":  3072,
	"text-embedding-ada-002":  1536,
	"all-MiniLM-L6-v2":        384,
	"all-mpnet-base-v2":       768,
	"luminous-base-embedding": 5120,
}

// ModelDimension reports the output dimension of a known model.
func ModelDimension(model string) (int, bool) {
	dim, ok := modelDimensions[model]
	return dim, ok
}

package embedding

import (
	"fmt"
	"strings"
)

// Capabilities describes what a model family supports. It is looked up once
// when the engine is constructed; routing decisions downstream key off this
// descriptor, never off the model name string again.
type Capabilities struct {
	// AsymmetricEncoding means documents and queries need distinct prompt
	// prefixes for good retrieval quality.
	AsymmetricEncoding bool
	DocumentPrompt     string
	QueryPrompt        string
	// TruncationDims enumerates the Matryoshka dimensions the family was
	// trained for. Nil means any positive target dimension is accepted.
	TruncationDims []int
}

// LookupCapabilities resolves the capability descriptor for a model name.
// Unknown models get plain symmetric encoding with unrestricted truncation.
func LookupCapabilities(modelName string) Capabilities {
	name := strings.ToLower(modelName)
	switch {
	case strings.Contains(name, "embeddinggemma"):
		return Capabilities{
			AsymmetricEncoding: true,
			DocumentPrompt:     "title: none | text: ",
			QueryPrompt:        "task: search result | query: ",
			TruncationDims:     []int{128, 256, 512, 768},
		}
	case strings.Contains(name, "nomic-embed"):
		return Capabilities{
			AsymmetricEncoding: true,
			DocumentPrompt:     "search_document: ",
			QueryPrompt:        "search_query: ",
		}
	default:
		return Capabilities{}
	}
}

// ValidateTargetDim checks targetDim against the capability descriptor.
// 0 means no truncation and is always valid.
func (c Capabilities) ValidateTargetDim(targetDim int) error {
	if targetDim == 0 {
		return nil
	}
	if targetDim < 0 {
		return fmt.Errorf("target_dim must be positive, got %d: %w", targetDim, ErrConfiguration)
	}
	if c.TruncationDims == nil {
		return nil
	}
	for _, d := range c.TruncationDims {
		if d == targetDim {
			return nil
		}
	}
	return fmt.Errorf("target_dim %d not in supported set %v: %w", targetDim, c.TruncationDims, ErrConfiguration)
}

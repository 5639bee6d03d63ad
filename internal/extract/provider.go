package extract

import (
	"fmt"

	"github.com/dkrasnove/faunaguess/internal/domain"
)

// NewExtractor returns the extractor for a provider name.
// Valid values: keyword, mock.
func NewExtractor(provider string) (domain.Extractor, error) {
	switch provider {
	case "", "keyword":
		return NewKeywordExtractor(), nil
	case "mock":
		return NewMockExtractor(), nil
	}
	return nil, fmt.Errorf("unknown extractor provider %q", provider)
}

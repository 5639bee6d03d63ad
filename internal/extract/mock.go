package extract

import (
	"context"

	"github.com/dkrasnove/faunaguess/internal/domain"
)

// MockExtractor is a configurable extractor for testing.
// Set the response fields to control what Extract returns.
type MockExtractor struct {
	ExtractResponse []domain.ExtractedFeature
	ExtractError    error

	// Call tracking for assertions
	ExtractCalls []string
}

func NewMockExtractor() *MockExtractor {
	return &MockExtractor{ExtractResponse: []domain.ExtractedFeature{}}
}

func (m *MockExtractor) Extract(_ context.Context, description string) ([]domain.ExtractedFeature, error) {
	m.ExtractCalls = append(m.ExtractCalls, description)
	if m.ExtractError != nil {
		return nil, m.ExtractError
	}
	return m.ExtractResponse, nil
}

package extract

import (
	"context"
	"strings"

	"github.com/dkrasnove/faunaguess/internal/domain"
)

// featureKeywords maps a canonical question to the description keywords that
// imply a yes answer. Question texts deliberately match the seed set where
// they overlap, so extraction dedups against existing questions.
var featureKeywords = []struct {
	question string
	keywords []string
}{
	{"Is it larger than a house cat?", []string{"large", "big", "huge", "massive", "giant"}},
	{"Is it smaller than a house cat?", []string{"small", "tiny", "little", "miniature"}},
	{"Does it live in water?", []string{"water", "ocean", "sea", "swimming", "aquatic"}},
	{"Can it fly?", []string{"fly", "flying", "wings", "air", "flight"}},
	{"Is it a domestic animal?", []string{"pet", "domestic", "house", "tame"}},
	{"Does it live in the wild?", []string{"wild", "jungle", "forest", "safari"}},
	{"Is it a carnivore?", []string{"meat", "carnivore", "predator", "hunter"}},
	{"Is it a herbivore?", []string{"plants", "grass", "herbivore", "vegetarian"}},
	{"Does it have fur?", []string{"fur", "furry", "hairy"}},
	{"Does it have feathers?", []string{"feather", "feathered"}},
	{"Does it have scales?", []string{"scale", "scaled", "scaly"}},
}

// KeywordExtractor derives features from a free-text description by keyword
// lookup. A match yields a yes answer; absence of a keyword says nothing.
type KeywordExtractor struct{}

func NewKeywordExtractor() *KeywordExtractor {
	return &KeywordExtractor{}
}

func (e *KeywordExtractor) Extract(_ context.Context, description string) ([]domain.ExtractedFeature, error) {
	desc := strings.ToLower(description)

	var features []domain.ExtractedFeature
	for _, fk := range featureKeywords {
		for _, kw := range fk.keywords {
			if strings.Contains(desc, kw) {
				features = append(features, domain.ExtractedFeature{
					QuestionText: fk.question,
					Answer:       domain.AnswerYes,
				})
				break
			}
		}
	}
	return features, nil
}

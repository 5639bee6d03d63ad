// Package seed populates an empty knowledge store with a starter set of
// animals and questions, either from a YAML file or from built-in defaults.
package seed

import (
	"fmt"
	"os"

	"github.com/dkrasnove/faunaguess/internal/domain"
	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

// Data is the YAML seed layout. Animal answers are keyed by question text
// and resolved to question IDs during Apply.
type Data struct {
	Questions []string `yaml:"questions"`
	Animals   []struct {
		Name    string            `yaml:"name"`
		Answers map[string]string `yaml:"answers"`
	} `yaml:"animals"`
}

// LoadFile reads seed data from a YAML file.
func LoadFile(path string) (*Data, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}
	var d Data
	if err := yaml.Unmarshal(raw, &d); err != nil {
		return nil, fmt.Errorf("parse seed file: %w", err)
	}
	return &d, nil
}

// Apply registers the seed's questions and animals into the store.
func Apply(store domain.KnowledgeStore, d *Data) error {
	questionIDs := make(map[string]uuid.UUID, len(d.Questions))
	for _, text := range d.Questions {
		id, err := store.AddQuestion(text)
		if err != nil {
			return fmt.Errorf("seed question %q: %w", text, err)
		}
		questionIDs[text] = id
	}

	for _, a := range d.Animals {
		answers := make(map[uuid.UUID]domain.Answer, len(a.Answers))
		for text, raw := range a.Answers {
			qID, ok := questionIDs[text]
			if !ok {
				return fmt.Errorf("seed animal %q references unknown question %q", a.Name, text)
			}
			ans, err := domain.ParseAnswer(raw)
			if err != nil {
				return fmt.Errorf("seed animal %q: %w", a.Name, err)
			}
			answers[qID] = ans
		}
		if _, err := store.AddAnimal(a.Name, answers, false); err != nil {
			return fmt.Errorf("seed animal %q: %w", a.Name, err)
		}
	}
	return nil
}

// Default returns the built-in starter set.
func Default() *Data {
	var d Data
	if err := yaml.Unmarshal([]byte(defaultYAML), &d); err != nil {
		// defaultYAML is a compile-time constant; a parse failure is a bug.
		panic(fmt.Sprintf("seed: invalid default data: %v", err))
	}
	return &d
}

const defaultYAML = `
questions:
  - Is it a mammal?
  - Does it live on land?
  - Is it larger than a house cat?
  - Is it a carnivore?
  - Does it have four legs?
  - Is it a domestic animal?
  - Can it fly?
  - Does it live in water?
  - Does it have fur?
  - Does it lay eggs?
animals:
  - name: Dog
    answers:
      Is it a mammal?: yes
      Does it live on land?: yes
      Is it larger than a house cat?: yes
      Does it have four legs?: yes
      Is it a domestic animal?: yes
      Can it fly?: no
      Does it live in water?: no
      Does it have fur?: yes
      Does it lay eggs?: no
  - name: Cat
    answers:
      Is it a mammal?: yes
      Does it live on land?: yes
      Is it larger than a house cat?: no
      Is it a carnivore?: yes
      Does it have four legs?: yes
      Is it a domestic animal?: yes
      Can it fly?: no
      Does it live in water?: no
      Does it have fur?: yes
      Does it lay eggs?: no
  - name: Elephant
    answers:
      Is it a mammal?: yes
      Does it live on land?: yes
      Is it larger than a house cat?: yes
      Is it a carnivore?: no
      Does it have four legs?: yes
      Is it a domestic animal?: no
      Can it fly?: no
      Does it live in water?: no
      Does it have fur?: no
      Does it lay eggs?: no
  - name: Lion
    answers:
      Is it a mammal?: yes
      Does it live on land?: yes
      Is it larger than a house cat?: yes
      Is it a carnivore?: yes
      Does it have four legs?: yes
      Is it a domestic animal?: no
      Can it fly?: no
      Does it have fur?: yes
      Does it lay eggs?: no
  - name: Fish
    answers:
      Is it a mammal?: no
      Does it live on land?: no
      Is it larger than a house cat?: no
      Does it have four legs?: no
      Can it fly?: no
      Does it live in water?: yes
      Does it have fur?: no
      Does it lay eggs?: yes
  - name: Bird
    answers:
      Is it a mammal?: no
      Does it live on land?: yes
      Is it larger than a house cat?: no
      Does it have four legs?: no
      Can it fly?: yes
      Does it live in water?: no
      Does it have fur?: no
      Does it lay eggs?: yes
  - name: Snake
    answers:
      Is it a mammal?: no
      Does it live on land?: yes
      Is it a carnivore?: yes
      Does it have four legs?: no
      Is it a domestic animal?: no
      Can it fly?: no
      Does it have fur?: no
      Does it lay eggs?: yes
  - name: Rabbit
    answers:
      Is it a mammal?: yes
      Does it live on land?: yes
      Is it larger than a house cat?: no
      Is it a carnivore?: no
      Does it have four legs?: yes
      Can it fly?: no
      Does it live in water?: no
      Does it have fur?: yes
      Does it lay eggs?: no
  - name: Bear
    answers:
      Is it a mammal?: yes
      Does it live on land?: yes
      Is it larger than a house cat?: yes
      Does it have four legs?: yes
      Is it a domestic animal?: no
      Can it fly?: no
      Does it have fur?: yes
      Does it lay eggs?: no
  - name: Whale
    answers:
      Is it a mammal?: yes
      Does it live on land?: no
      Is it larger than a house cat?: yes
      Does it have four legs?: no
      Is it a domestic animal?: no
      Can it fly?: no
      Does it live in water?: yes
      Does it have fur?: no
      Does it lay eggs?: no
`

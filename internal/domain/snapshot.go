package domain

import (
	"time"

	"github.com/google/uuid"
)

// Stats tracks lifetime game counters.
type Stats struct {
	Played  int `json:"played"`
	Correct int `json:"correct"`
}

// GameRecord is one finished round, kept for later analysis.
type GameRecord struct {
	PlayedAt    time.Time            `json:"played_at"`
	Animal      string               `json:"animal"`
	Answers     map[uuid.UUID]Answer `json:"answers"`
	Success     bool                 `json:"success"`
	Description string               `json:"description,omitempty"`
}

// Snapshot is the knowledge store's full state as plain data. Persistence
// collaborators serialize it without the store knowing the storage format;
// a round trip must be lossless.
type Snapshot struct {
	Animals   []Animal     `json:"animals"`
	Questions []Question   `json:"questions"`
	Records   []GameRecord `json:"game_records"`
	Stats     Stats        `json:"stats"`
}

// Empty reports whether the snapshot holds no knowledge (first run).
func (s *Snapshot) Empty() bool {
	return s == nil || (len(s.Animals) == 0 && len(s.Questions) == 0)
}

package recommend

import "github.com/bookwise/bookwise/internal/domain"

// Candidate is a single vector index hit: identifier plus similarity score
// (higher is better). Exists only for the duration of one query.
type Candidate struct {
	ID         string
	Similarity float64
}

// Recommendation joins a catalog record with the similarity score that
// produced it and, when a tone filter was applied, the matched tone's score.
// Created fresh per request, never persisted.
type Recommendation struct {
	Book       domain.Book
	Similarity float64
	ToneScore  float64
	HasTone    bool
}

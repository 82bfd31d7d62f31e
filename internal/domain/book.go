// Package domain holds the core types shared between layers: the book
// catalog record, emotional tones, and the embedding contract.
package domain

import "math"

// AllSentinel is the reserved filter value meaning "no filter applied".
// It is distinguishable from any real category or tone string.
const AllSentinel = "All"

// Book is a single catalog record. Immutable after catalog load.
type Book struct {
	ID              string // ISBN-like identifier, unique within the catalog
	Title           string
	Authors         []string
	Category        string
	Description     string // short description
	FullDescription string
	Thumbnail       string // cover image URL; empty means no cover
	Rating          float64
	Emotions        EmotionScores
}

// EmotionScores holds five independent classifier outputs in [0,1].
// The scores are not required to sum to 1.
type EmotionScores struct {
	Joy      float64
	Surprise float64
	Anger    float64
	Fear     float64
	Sadness  float64
}

// Score returns the score for the given tone. The "All" sentinel
// and unknown tones score 0.
func (e EmotionScores) Score(t Tone) float64 {
	switch t {
	case ToneHappy:
		return e.Joy
	case ToneSurprising:
		return e.Surprise
	case ToneAngry:
		return e.Anger
	case ToneSuspenseful:
		return e.Fear
	case ToneSad:
		return e.Sadness
	}
	return 0
}

// Clamped returns a copy with every score forced into [0,1].
// NaN and infinities become 0.
func (e EmotionScores) Clamped() EmotionScores {
	return EmotionScores{
		Joy:      clampScore(e.Joy),
		Surprise: clampScore(e.Surprise),
		Anger:    clampScore(e.Anger),
		Fear:     clampScore(e.Fear),
		Sadness:  clampScore(e.Sadness),
	}
}

func clampScore(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// Package present shapes recommendations for display: truncated
// descriptions, human-readable author lists, and usable cover URLs.
// It never reorders or drops results.
package present

import (
	"strings"

	"github.com/bookwise/bookwise/internal/domain/recommend"
)

// thumbnailSizeSuffix requests a larger cover rendition from the image host.
const thumbnailSizeSuffix = "&fife=w800"

// Card is one display-ready recommendation.
type Card struct {
	ID              string   `json:"id"`
	Title           string   `json:"title"`
	Authors         string   `json:"authors"`
	Category        string   `json:"category"`
	Description     string   `json:"description"`
	FullDescription string   `json:"full_description"`
	Thumbnail       string   `json:"thumbnail"`
	Rating          float64  `json:"rating,omitempty"`
	Similarity      float64  `json:"similarity"`
	ToneScore       *float64 `json:"tone_score,omitempty"`
	Emotions        Emotions `json:"emotions"`
}

// Emotions mirrors the five catalog scores for display.
type Emotions struct {
	Joy      float64 `json:"joy"`
	Surprise float64 `json:"surprise"`
	Anger    float64 `json:"anger"`
	Fear     float64 `json:"fear"`
	Sadness  float64 `json:"sadness"`
}

// Presenter converts pipeline output into display cards.
type Presenter struct {
	maxWords          int
	fallbackThumbnail string
}

// New creates a presenter. maxWords bounds the description; zero or
// negative falls back to 30.
func New(maxWords int, fallbackThumbnail string) *Presenter {
	if maxWords <= 0 {
		maxWords = 30
	}
	return &Presenter{maxWords: maxWords, fallbackThumbnail: fallbackThumbnail}
}

// Cards renders recommendations in the order given.
func (p *Presenter) Cards(recs []recommend.Recommendation) []Card {
	cards := make([]Card, len(recs))
	for i, r := range recs {
		cards[i] = p.card(r)
	}
	return cards
}

func (p *Presenter) card(r recommend.Recommendation) Card {
	c := Card{
		ID:              r.Book.ID,
		Title:           r.Book.Title,
		Authors:         FormatAuthors(r.Book.Authors),
		Category:        r.Book.Category,
		Description:     TruncateWords(r.Book.Description, p.maxWords),
		FullDescription: r.Book.FullDescription,
		Thumbnail:       p.thumbnail(r.Book.Thumbnail),
		Rating:          r.Book.Rating,
		Similarity:      r.Similarity,
		Emotions: Emotions{
			Joy:      r.Book.Emotions.Joy,
			Surprise: r.Book.Emotions.Surprise,
			Anger:    r.Book.Emotions.Anger,
			Fear:     r.Book.Emotions.Fear,
			Sadness:  r.Book.Emotions.Sadness,
		},
	}
	if r.HasTone {
		score := r.ToneScore
		c.ToneScore = &score
	}
	return c
}

func (p *Presenter) thumbnail(url string) string {
	if url == "" {
		return p.fallbackThumbnail
	}
	return url + thumbnailSizeSuffix
}

// FormatAuthors joins author names for display: "A", "A and B",
// or "A, B, and C" for three or more.
func FormatAuthors(authors []string) string {
	switch len(authors) {
	case 0:
		return ""
	case 1:
		return authors[0]
	case 2:
		return authors[0] + " and " + authors[1]
	default:
		return strings.Join(authors[:len(authors)-1], ", ") + ", and " + authors[len(authors)-1]
	}
}

// TruncateWords cuts text to at most maxWords words, appending "..."
// when anything was cut. Runs of whitespace collapse to single spaces.
func TruncateWords(text string, maxWords int) string {
	words := strings.Fields(text)
	if len(words) <= maxWords {
		return strings.Join(words, " ")
	}
	return strings.Join(words[:maxWords], " ") + "..."
}

// Package catalog loads the book table from its CSV source and serves
// read-only lookups. The store is built once at startup and never mutated
// while requests are being handled.
package catalog

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/bookwise/bookwise/internal/domain"
)

// Required catalog columns. A source missing any of these is rejected.
var requiredColumns = []string{
	"identifier", "title", "authors", "category", "description",
	"full_description", "joy", "sadness", "anger", "fear", "surprise",
}

// Optional columns tolerated per row.
const (
	colThumbnail = "thumbnail"
	colRating    = "rating"
)

// authorSeparator splits the authors column into individual names.
const authorSeparator = ";"

// Store is the immutable in-memory book table.
type Store struct {
	books      map[string]domain.Book
	order      []string // identifiers in source order
	categories []string // sorted unique categories
	skipped    int
}

// Load reads the catalog CSV at path. Unreadable files and missing
// required columns fail with ErrDataLoad; individual malformed rows
// (missing or duplicate identifier) are skipped and counted.
func Load(path string, logger *zap.Logger) (*Store, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %w", domain.ErrDataLoad, path, err)
	}
	defer f.Close()

	s, err := Parse(f, logger)
	if err != nil {
		return nil, fmt.Errorf("%w: parse %s: %w", domain.ErrDataLoad, path, err)
	}
	return s, nil
}

// Parse builds a Store from CSV content.
func Parse(r io.Reader, logger *zap.Logger) (*Store, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1 // row width validated against the header below

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	cols, err := resolveColumns(header)
	if err != nil {
		return nil, err
	}

	s := &Store{books: make(map[string]domain.Book)}
	catSet := make(map[string]struct{})

	line := 1
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			logger.Warn("Skipping unparsable catalog row", zap.Int("line", line), zap.Error(err))
			s.skipped++
			continue
		}

		book, ok := rowToBook(row, cols)
		if !ok {
			logger.Warn("Skipping catalog row without identifier", zap.Int("line", line))
			s.skipped++
			continue
		}
		if _, dup := s.books[book.ID]; dup {
			logger.Warn("Skipping duplicate identifier",
				zap.Int("line", line), zap.String("identifier", book.ID))
			s.skipped++
			continue
		}

		s.books[book.ID] = book
		s.order = append(s.order, book.ID)
		if book.Category != "" {
			catSet[book.Category] = struct{}{}
		}
	}

	if len(s.books) == 0 {
		return nil, errors.New("catalog has no usable rows")
	}

	s.categories = make([]string, 0, len(catSet))
	for c := range catSet {
		s.categories = append(s.categories, c)
	}
	sort.Strings(s.categories)

	logger.Info("Catalog loaded",
		zap.Int("books", len(s.books)),
		zap.Int("categories", len(s.categories)),
		zap.Int("skipped_rows", s.skipped),
	)

	return s, nil
}

// Lookup returns the book for an identifier.
func (s *Store) Lookup(id string) (domain.Book, error) {
	b, ok := s.books[id]
	if !ok {
		return domain.Book{}, fmt.Errorf("%w: %s", domain.ErrBookNotFound, id)
	}
	return b, nil
}

// Categories returns the unique category names, sorted.
func (s *Store) Categories() []string {
	out := make([]string, len(s.categories))
	copy(out, s.categories)
	return out
}

// HasCategory reports whether the exact category exists in the catalog.
func (s *Store) HasCategory(category string) bool {
	i := sort.SearchStrings(s.categories, category)
	return i < len(s.categories) && s.categories[i] == category
}

// Books returns every record in source order.
func (s *Store) Books() []domain.Book {
	out := make([]domain.Book, len(s.order))
	for i, id := range s.order {
		out[i] = s.books[id]
	}
	return out
}

// Len returns the number of loaded records.
func (s *Store) Len() int { return len(s.books) }

// SkippedRows returns how many source rows were rejected during load.
func (s *Store) SkippedRows() int { return s.skipped }

// columnIndexes holds the resolved position of every column.
type columnIndexes struct {
	identifier, title, authors, category        int
	description, fullDescription, thumbnail     int
	rating, joy, sadness, anger, fear, surprise int
}

func resolveColumns(header []string) (columnIndexes, error) {
	pos := make(map[string]int, len(header))
	for i, name := range header {
		pos[strings.TrimSpace(name)] = i
	}

	for _, name := range requiredColumns {
		if _, ok := pos[name]; !ok {
			return columnIndexes{}, fmt.Errorf("missing required column %q", name)
		}
	}

	at := func(name string) int {
		if i, ok := pos[name]; ok {
			return i
		}
		return -1
	}

	return columnIndexes{
		identifier:      at("identifier"),
		title:           at("title"),
		authors:         at("authors"),
		category:        at("category"),
		description:     at("description"),
		fullDescription: at("full_description"),
		thumbnail:       at(colThumbnail),
		rating:          at(colRating),
		joy:             at("joy"),
		sadness:         at("sadness"),
		anger:           at("anger"),
		fear:            at("fear"),
		surprise:        at("surprise"),
	}, nil
}

func rowToBook(row []string, cols columnIndexes) (domain.Book, bool) {
	field := func(i int) string {
		if i < 0 || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	id := field(cols.identifier)
	if id == "" {
		return domain.Book{}, false
	}

	book := domain.Book{
		ID:              id,
		Title:           field(cols.title),
		Authors:         splitAuthors(field(cols.authors)),
		Category:        field(cols.category),
		Description:     field(cols.description),
		FullDescription: field(cols.fullDescription),
		Thumbnail:       field(cols.thumbnail),
		Rating:          parseScore(field(cols.rating)),
		Emotions: domain.EmotionScores{
			Joy:      parseScore(field(cols.joy)),
			Surprise: parseScore(field(cols.surprise)),
			Anger:    parseScore(field(cols.anger)),
			Fear:     parseScore(field(cols.fear)),
			Sadness:  parseScore(field(cols.sadness)),
		}.Clamped(),
	}
	return book, true
}

func splitAuthors(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, authorSeparator)
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// parseScore reads a float column; missing or malformed values become 0.
func parseScore(s string) float64 {
	if s == "" {
		return 0
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}

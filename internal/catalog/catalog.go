// Package catalog loads and maintains the card and conclusion catalog: seed
// data embedded in the binary, bulk import from CSV or JSON uploads, and
// authoring templates.
package catalog

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/DavidSBennett/PlayingInThePast/engine"
	"github.com/DavidSBennett/PlayingInThePast/internal/store"
)

//go:embed seed/historical_documents.json
var seedCards []byte

//go:embed seed/conclusion_cards.json
var seedConclusions []byte

// sourceTypeMap folds the raw document kinds used by card authors onto the
// three-type enum the scoring rules recognize.
var sourceTypeMap = map[string]engine.SourceType{
	"Pamphlet":            engine.SourceBook,
	"Letter":              engine.SourceLetter,
	"Book":                engine.SourceBook,
	"Speech":              engine.SourceLetter,
	"Interview":           engine.SourceLetter,
	"Government Document": engine.SourceNewspaper,
	"Minutes":             engine.SourceLetter,
	"Newspaper":           engine.SourceNewspaper,
	"Woodcut":             engine.SourceLetter,
	"Trial Testimony":     engine.SourceLetter,
	"Ships Log":           engine.SourceLetter,
	"Resolution":          engine.SourceNewspaper,
	"Diary":               engine.SourceBook,
	"Ledger":              engine.SourceNewspaper,
}

// NormalizeSourceType maps a raw source type onto the letter/newspaper/book
// enum. Canonical values pass through; anything unrecognized, including the
// empty string, falls back to book.
func NormalizeSourceType(raw string) engine.SourceType {
	switch engine.SourceType(raw) {
	case engine.SourceLetter, engine.SourceNewspaper, engine.SourceBook:
		return engine.SourceType(raw)
	}
	if mapped, ok := sourceTypeMap[raw]; ok {
		return mapped
	}
	return engine.SourceBook
}

// Seed populates an empty store from the embedded catalog data. Stores that
// already hold cards or conclusions are left untouched, so operator edits
// survive restarts.
func Seed(ctx context.Context, s store.Store, log *logrus.Logger) error {
	existing, err := s.Cards().List(ctx)
	if err != nil {
		return fmt.Errorf("catalog: list cards: %w", err)
	}
	if len(existing) == 0 {
		var cards []engine.HistoricalCard
		if err := json.Unmarshal(seedCards, &cards); err != nil {
			return fmt.Errorf("catalog: decode seed cards: %w", err)
		}
		for i := range cards {
			cards[i].IsArchive = true
			cards[i].SourceType = NormalizeSourceType(string(cards[i].SourceType))
		}
		if _, err := s.Cards().BulkCreate(ctx, cards); err != nil {
			return fmt.Errorf("catalog: seed cards: %w", err)
		}
		log.WithField("count", len(cards)).Info("seeded historical cards")
	}

	conclusions, err := s.Conclusions().List(ctx)
	if err != nil {
		return fmt.Errorf("catalog: list conclusions: %w", err)
	}
	if len(conclusions) == 0 {
		var tiles []engine.Conclusion
		if err := json.Unmarshal(seedConclusions, &tiles); err != nil {
			return fmt.Errorf("catalog: decode seed conclusions: %w", err)
		}
		if _, err := s.Conclusions().BulkCreate(ctx, tiles); err != nil {
			return fmt.Errorf("catalog: seed conclusions: %w", err)
		}
		log.WithField("count", len(tiles)).Info("seeded conclusion tiles")
	}
	return nil
}

// Load builds the engine's read-only catalog view from the store.
func Load(ctx context.Context, s store.Store) (engine.Catalog, error) {
	cards, err := s.Cards().List(ctx)
	if err != nil {
		return engine.Catalog{}, fmt.Errorf("catalog: load cards: %w", err)
	}
	conclusions, err := s.Conclusions().List(ctx)
	if err != nil {
		return engine.Catalog{}, fmt.Errorf("catalog: load conclusions: %w", err)
	}
	cat := engine.Catalog{
		Cards:       make(map[string]engine.HistoricalCard, len(cards)),
		Conclusions: make(map[string]engine.Conclusion, len(conclusions)),
	}
	for _, c := range cards {
		cat.Cards[c.ID] = c
	}
	for _, c := range conclusions {
		cat.Conclusions[c.ID] = c
	}
	return cat, nil
}

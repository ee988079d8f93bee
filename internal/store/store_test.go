package store

import (
	"context"
	"io"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DavidSBennett/PlayingInThePast/engine"
)

// openStores returns one store per implementation, all empty.
func openStores(t *testing.T) map[string]Store {
	t.Helper()
	log := logrus.New()
	log.SetOutput(io.Discard)

	sqlStore, err := OpenSQL(context.Background(), DialectSQLite, ":memory:", log)
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlStore.Close() })

	return map[string]Store{
		"memory": NewMemory(),
		"sqlite": sqlStore,
	}
}

func TestCardCRUD(t *testing.T) {
	for name, s := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			cards := s.Cards()

			created, err := cards.Create(ctx, engine.HistoricalCard{
				Title:      "Stamp Act Protest Letter",
				SourceType: engine.SourceLetter,
				Author:     "S. Adams",
				IsArchive:  true,
			})
			require.NoError(t, err)
			require.NotEmpty(t, created.ID, "create must generate an id")

			got, err := cards.Get(ctx, created.ID)
			require.NoError(t, err)
			assert.Equal(t, created, got)

			got.Location = "Boston"
			updated, err := cards.Update(ctx, created.ID, got)
			require.NoError(t, err)
			assert.Equal(t, "Boston", updated.Location)

			listed, err := cards.List(ctx)
			require.NoError(t, err)
			require.Len(t, listed, 1)
			assert.Equal(t, updated, listed[0])

			require.NoError(t, cards.Delete(ctx, created.ID))
			_, err = cards.Get(ctx, created.ID)
			assert.ErrorIs(t, err, ErrNotFound)
		})
	}
}

func TestCardBulkCreate(t *testing.T) {
	for name, s := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			batch := []engine.HistoricalCard{
				{Title: "Boston Gazette report", SourceType: engine.SourceNewspaper, IsArchive: true},
				{Title: "Common Sense excerpt", SourceType: engine.SourceBook, IsArchive: true},
				{ID: "fixed-id", Title: "Seeded card", IsArchive: true},
			}
			created, err := s.Cards().BulkCreate(ctx, batch)
			require.NoError(t, err)
			require.Len(t, created, 3)
			assert.Equal(t, "fixed-id", created[2].ID, "provided ids are kept")
			for _, c := range created {
				assert.NotEmpty(t, c.ID)
			}

			listed, err := s.Cards().List(ctx)
			require.NoError(t, err)
			assert.Len(t, listed, 3)
		})
	}
}

func TestUpdateMissingRecord(t *testing.T) {
	for name, s := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			_, err := s.Conclusions().Update(ctx, "ghost", engine.Conclusion{Title: "x"})
			assert.ErrorIs(t, err, ErrNotFound)
			_, err = s.Sessions().Get(ctx, "ghost")
			assert.ErrorIs(t, err, ErrNotFound)
			err = s.Cards().Delete(ctx, "ghost")
			assert.ErrorIs(t, err, ErrNotFound)
		})
	}
}

// TestSessionRoundTrip verifies a full session snapshot survives the JSON
// codec byte-for-byte at the field level.
func TestSessionRoundTrip(t *testing.T) {
	cards := make([]engine.HistoricalCard, 6)
	for i := range cards {
		cards[i] = engine.HistoricalCard{ID: string(rune('a' + i)), SourceType: engine.SourceBook, IsArchive: true}
	}
	sess := engine.NewSession("round-trip", "Ada", cards, 42)
	sess, _, ok := sess.TransferToResearch()
	require.True(t, ok)
	sess, _, ok = sess.DrawToHand()
	require.True(t, ok)

	for name, s := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			created, err := s.Sessions().Create(ctx, sess)
			require.NoError(t, err)

			got, err := s.Sessions().Get(ctx, created.ID)
			require.NoError(t, err)
			assert.Equal(t, created, got)
			assert.Equal(t, sess.ArchiveDeck, got.ArchiveDeck)
			assert.Equal(t, sess.Instances, got.Instances)
			assert.Equal(t, sess.RNG, got.RNG)
		})
	}
}

func TestListOrderStable(t *testing.T) {
	for name, s := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			for _, id := range []string{"c", "a", "b"} {
				_, err := s.Conclusions().Create(ctx, engine.Conclusion{ID: id, Title: id})
				require.NoError(t, err)
			}
			listed, err := s.Conclusions().List(ctx)
			require.NoError(t, err)
			require.Len(t, listed, 3)
			assert.Equal(t, "a", listed[0].ID)
			assert.Equal(t, "b", listed[1].ID)
			assert.Equal(t, "c", listed[2].ID)
		})
	}
}

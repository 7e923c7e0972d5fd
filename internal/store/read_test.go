package store

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JudeLabs/ClipCache/internal/clip"
	"github.com/JudeLabs/ClipCache/internal/settings"
)

func TestHistory_Empty(t *testing.T) {
	s, _, _ := createTestStore(t)

	entries, err := s.History(context.Background(), 0)
	require.NoError(t, err)
	assert.NotNil(t, entries)
	assert.Empty(t, entries)
}

func TestHistory_Ordering(t *testing.T) {
	s, _, clk := createTestStore(t)
	ctx := context.Background()

	a := saveText(t, s, "a")
	clk.Advance(time.Second)
	b := saveText(t, s, "b")
	clk.Advance(time.Second)
	c := saveText(t, s, "c")

	_, _, err := s.TogglePin(ctx, a)
	require.NoError(t, err)

	assert.Equal(t, []int64{a, c, b}, historyIDs(t, s))
}

func TestHistory_SameTimestampNewestIDFirst(t *testing.T) {
	s, _, _ := createTestStore(t)

	first := saveText(t, s, "first")
	second := saveText(t, s, "second")

	assert.Equal(t, []int64{second, first}, historyIDs(t, s))
}

func TestHistory_VisibleImmediately(t *testing.T) {
	s, _, _ := createTestStore(t)

	id := saveText(t, s, "fresh")

	entries, err := s.History(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, id, entries[0].ID)
	assert.Equal(t, "fresh", string(entries[0].Content))
}

func TestHistory_Limit(t *testing.T) {
	s, _, clk := createTestStore(t)

	for i := 0; i < 5; i++ {
		saveText(t, s, fmt.Sprintf("item %d", i))
		clk.Advance(time.Second)
	}

	entries, err := s.History(context.Background(), 3)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, "item 4", string(entries[0].Content))
}

func TestHistory_SweepsExpired(t *testing.T) {
	s, prefs, clk := createTestStore(t)
	ctx := context.Background()
	prefs.update(func(cfg *settings.Settings) {
		cfg.AutoClear = true
		cfg.AutoClearTime = 2
	})

	expiring := saveText(t, s, "expiring")
	pinned := saveText(t, s, "pinned")
	_, _, err := s.TogglePin(ctx, pinned)
	require.NoError(t, err)

	clk.Advance(2*time.Minute - time.Second)
	assert.ElementsMatch(t, []int64{expiring, pinned}, historyIDs(t, s))

	// Expiry is inclusive: gone exactly at expires_at.
	clk.Advance(time.Second)
	assert.Equal(t, []int64{pinned}, historyIDs(t, s))

	_, found, err := s.Item(ctx, expiring)
	require.NoError(t, err)
	assert.False(t, found, "expired entry should be deleted, not just hidden")
}

func TestSearch(t *testing.T) {
	s, _, clk := createTestStore(t)
	ctx := context.Background()

	hello := saveText(t, s, "Hello World")
	clk.Advance(time.Second)
	saveText(t, s, "goodbye")
	clk.Advance(time.Second)
	percent := saveText(t, s, "100% done")
	clk.Advance(time.Second)
	_, err := s.Save(ctx, clip.Image, []byte("hello-bytes"))
	require.NoError(t, err)

	tests := []struct {
		query string
		want  []int64
	}{
		{"hello", []int64{hello}},
		{"WORLD", []int64{hello}},
		{"%", []int64{percent}},
		{"_", nil},
		{"missing", nil},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			entries, err := s.Search(ctx, tt.query, 0)
			require.NoError(t, err)
			var ids []int64
			for _, e := range entries {
				ids = append(ids, e.ID)
			}
			assert.Equal(t, tt.want, ids)
		})
	}

	all, err := s.Search(ctx, "", 0)
	require.NoError(t, err)
	assert.Len(t, all, 4)
}

func TestItem_Missing(t *testing.T) {
	s, _, _ := createTestStore(t)

	content, found, err := s.Item(context.Background(), 7)
	require.NoError(t, err)
	assert.False(t, found)
	assert.True(t, content.IsZero())
}

func TestEnforceHistoryLimit(t *testing.T) {
	s, _, clk := createTestStore(t)
	ctx := context.Background()

	var ids []int64
	for i := 0; i < 6; i++ {
		ids = append(ids, saveText(t, s, fmt.Sprintf("item %d", i)))
		clk.Advance(time.Second)
	}

	removed, err := s.EnforceHistoryLimit(ctx, 4)
	require.NoError(t, err)
	assert.Equal(t, int64(2), removed)
	assert.Equal(t, []int64{ids[5], ids[4], ids[3], ids[2]}, historyIDs(t, s))

	removed, err = s.EnforceHistoryLimit(ctx, 4)
	require.NoError(t, err)
	assert.Zero(t, removed)

	_, err = s.EnforceHistoryLimit(ctx, -1)
	assert.Error(t, err)
}

func TestSweepExpired(t *testing.T) {
	s, prefs, clk := createTestStore(t)
	ctx := context.Background()

	saveText(t, s, "forever")
	prefs.update(func(cfg *settings.Settings) {
		cfg.AutoClear = true
		cfg.AutoClearTime = 1
	})
	saveText(t, s, "short")

	removed, err := s.SweepExpired(ctx)
	require.NoError(t, err)
	assert.Zero(t, removed)

	clk.Advance(time.Minute)
	removed, err = s.SweepExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)

	stats, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.Total)
}

func TestEscapeLike(t *testing.T) {
	assert.Equal(t, `50\% off\_now \\o/`, escapeLike(`50% off_now \o/`))
}

package history

import (
	"context"
	"fmt"
	"testing"

	domainHistory "github.com/AzielCF/az-ravena/domains/history"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_CapsPerChat(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(3)

	for i := 0; i < 5; i++ {
		require.NoError(t, store.Append(ctx, "g1@g.us", domainHistory.Entry{Text: fmt.Sprintf("msg %d", i)}))
	}
	require.NoError(t, store.Append(ctx, "g2@g.us", domainHistory.Entry{Text: "other"}))

	entries, err := store.Recent(ctx, "g1@g.us", 0)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, "msg 2", entries[0].Text)
	assert.Equal(t, "msg 4", entries[2].Text)

	last, err := store.Recent(ctx, "g1@g.us", 1)
	require.NoError(t, err)
	require.Len(t, last, 1)
	assert.Equal(t, "msg 4", last[0].Text)

	other, _ := store.Recent(ctx, "g2@g.us", 10)
	assert.Len(t, other, 1)
}

func TestMemoryStore_RecentReturnsCopy(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(10)
	require.NoError(t, store.Append(ctx, "g@g.us", domainHistory.Entry{Text: "a"}))

	entries, _ := store.Recent(ctx, "g@g.us", 0)
	entries[0].Text = "changed"

	again, _ := store.Recent(ctx, "g@g.us", 0)
	assert.Equal(t, "a", again[0].Text)
}

package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	exec "github.com/gqlpipe/gqlpipe/internal/exec"
)

func TestLRUStore(t *testing.T) {
	store, err := NewLRUStore(2)
	require.NoError(t, err)

	entry := func(name string) *Entry {
		obj := exec.NewDataObject()
		obj.Set("name", name)
		return &Entry{Data: obj, StoredAt: time.Now()}
	}

	store.Put("a", entry("A"))
	store.Put("b", entry("B"))

	got, ok := store.Get("a")
	require.True(t, ok)
	require.Equal(t, "A", got.Data.Fields["name"])

	// "b" is now the least recently used and gets evicted.
	store.Put("c", entry("C"))
	require.Equal(t, 2, store.Len())
	_, ok = store.Get("b")
	require.False(t, ok)
	_, ok = store.Get("a")
	require.True(t, ok)

	store.Delete("a")
	_, ok = store.Get("a")
	require.False(t, ok)
}

func TestLRUStore_RejectsNonPositiveSize(t *testing.T) {
	_, err := NewLRUStore(0)
	require.Error(t, err)
}

func TestOperationKey(t *testing.T) {
	doc := `query Hero { hero { name } }`
	base := OperationKey("Hero", doc, map[string]any{"ep": "JEDI", "limit": 2})

	t.Run("stable across equal inputs", func(t *testing.T) {
		require.Equal(t, base, OperationKey("Hero", doc, map[string]any{"limit": 2, "ep": "JEDI"}))
	})

	t.Run("sensitive to each identity component", func(t *testing.T) {
		require.NotEqual(t, base, OperationKey("Other", doc, map[string]any{"ep": "JEDI", "limit": 2}))
		require.NotEqual(t, base, OperationKey("Hero", doc+" ", map[string]any{"ep": "JEDI", "limit": 2}))
		require.NotEqual(t, base, OperationKey("Hero", doc, map[string]any{"ep": "EMPIRE", "limit": 2}))
		require.NotEqual(t, base, OperationKey("Hero", doc, nil))
	})

	t.Run("nil and empty variables are equivalent", func(t *testing.T) {
		require.Equal(t, OperationKey("Hero", doc, nil), OperationKey("Hero", doc, map[string]any{}))
	})
}

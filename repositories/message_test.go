package repositories

import (
	"log/slog"
	"sync"
	"testing"

	"github.com/dgraph-io/badger/v4"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *badger.DB {
	t.Helper()
	db, err := badger.Open(badger.DefaultOptions(t.TempDir()).WithLoggingLevel(badger.ERROR))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestMessageStore_IdentifiersStartAtOne(t *testing.T) {
	req := require.New(t)
	store, err := NewMessageStore(openTestDB(t), slog.Default())
	req.NoError(err)

	id, err := store.AddMessage("alice", "conn-1", "#000080", "hello", 100)

	req.NoError(err)
	req.Equal(int64(1), id)
}

func TestMessageStore_IdentifiersAreSequential(t *testing.T) {
	req := require.New(t)
	store, err := NewMessageStore(openTestDB(t), slog.Default())
	req.NoError(err)

	for want := int64(1); want <= 5; want++ {
		id, err := store.AddMessage("alice", "conn-1", "#000080", "hello", 100+want)
		req.NoError(err)
		req.Equal(want, id)
	}
}

func TestMessageStore_ConcurrentAddsStayGapless(t *testing.T) {
	req := require.New(t)
	store, err := NewMessageStore(openTestDB(t), slog.Default())
	req.NoError(err)

	// When many session goroutines append at once
	const writers = 8
	const perWriter = 25
	ids := make(chan int64, writers*perWriter)
	var wg sync.WaitGroup
	for w := 0; w < writers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < perWriter; i++ {
				id, err := store.AddMessage("bob", "conn-2", "#8B0000", "spam", 200)
				if err == nil {
					ids <- id
				}
			}
		}(w)
	}
	wg.Wait()
	close(ids)

	// Then every identifier in 1..N is assigned exactly once
	seen := make(map[int64]bool)
	for id := range ids {
		req.False(seen[id], "duplicate id %d", id)
		seen[id] = true
	}
	req.Len(seen, writers*perWriter)
	for want := int64(1); want <= writers*perWriter; want++ {
		req.True(seen[want], "missing id %d", want)
	}
}

func TestMessageStore_SequenceSurvivesReopen(t *testing.T) {
	req := require.New(t)
	db := openTestDB(t)

	store, err := NewMessageStore(db, slog.Default())
	req.NoError(err)
	_, err = store.AddMessage("alice", "conn-1", "#000080", "before restart", 100)
	req.NoError(err)

	// A new store over the same database resumes the sequence.
	reopened, err := NewMessageStore(db, slog.Default())
	req.NoError(err)
	id, err := reopened.AddMessage("alice", "conn-1", "#000080", "after restart", 200)
	req.NoError(err)
	req.Equal(int64(2), id)
}

func TestMessageStore_QueryRecent_FiltersAndOrders(t *testing.T) {
	req := require.New(t)
	store, err := NewMessageStore(openTestDB(t), slog.Default())
	req.NoError(err)

	// Given messages at timestamps 100, 200, 300
	for _, ts := range []int64{100, 200, 300} {
		_, err := store.AddMessage("alice", "conn-1", "#000080", "at", ts)
		req.NoError(err)
	}

	// When querying from 150
	messages, err := store.QueryRecent(150, 10)

	// Then exactly the rows at 200 and 300 come back, ascending
	req.NoError(err)
	req.Len(messages, 2)
	req.Equal(int64(200), messages[0].Timestamp)
	req.Equal(int64(300), messages[1].Timestamp)
}

func TestMessageStore_QueryRecent_LimitOneReturnsEarliest(t *testing.T) {
	req := require.New(t)
	store, err := NewMessageStore(openTestDB(t), slog.Default())
	req.NoError(err)
	for _, ts := range []int64{100, 200, 300} {
		_, err := store.AddMessage("alice", "conn-1", "#000080", "at", ts)
		req.NoError(err)
	}

	messages, err := store.QueryRecent(0, 1)

	req.NoError(err)
	req.Len(messages, 1)
	req.Equal(int64(100), messages[0].Timestamp)
}

func TestMessageStore_QueryRecent_ZeroLimit(t *testing.T) {
	req := require.New(t)
	store, err := NewMessageStore(openTestDB(t), slog.Default())
	req.NoError(err)
	_, err = store.AddMessage("alice", "conn-1", "#000080", "at", 100)
	req.NoError(err)

	messages, err := store.QueryRecent(0, 0)

	req.NoError(err)
	req.Empty(messages)
}

func TestMessageStore_EmptyColorDefaultsToBlack(t *testing.T) {
	req := require.New(t)
	store, err := NewMessageStore(openTestDB(t), slog.Default())
	req.NoError(err)

	_, err = store.AddMessage("alice", "conn-1", "", "no color", 100)
	req.NoError(err)

	messages, err := store.QueryRecent(0, 1)
	req.NoError(err)
	req.Equal("#000000", messages[0].ColorHex)
}

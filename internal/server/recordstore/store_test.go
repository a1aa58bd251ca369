package recordstore

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/guardian/internal/common"
	"github.com/dmitrijs2005/guardian/internal/logging"
)

type thing struct {
	ID    string `json:"id" dynamodbav:"id"`
	Owner string `json:"owner,omitempty" dynamodbav:"owner,omitempty"`
	State string `json:"state,omitempty" dynamodbav:"state,omitempty"`
	Count int64  `json:"count" dynamodbav:"count"`
}

type edge struct {
	From string `json:"from" dynamodbav:"from"`
	To   string `json:"to" dynamodbav:"to"`
}

var (
	things = Collection{Name: "things", PartitionKey: "id"}
	edges  = Collection{Name: "edges", PartitionKey: "from", SortKey: "to"}
)

// backends returns a fresh instance of every local backend.
func backends(t *testing.T) map[string]Store {
	t.Helper()
	fs, err := NewFileStore(t.TempDir(), logging.Nop{})
	require.NoError(t, err)
	return map[string]Store{
		"memory": NewMemoryStore(logging.Nop{}),
		"file":   fs,
	}
}

func forEachBackend(t *testing.T, fn func(t *testing.T, s Store)) {
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) { fn(t, s) })
	}
}

func TestStore_PutGet(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		require.NoError(t, s.Put(ctx, things, thing{ID: "a", Owner: "u1", Count: 1}))
		require.NoError(t, s.Put(ctx, things, thing{ID: "b", Owner: "u2", Count: 2}))
		require.NoError(t, s.Put(ctx, things, thing{ID: "a", Owner: "u1", Count: 7}))

		got, err := GetAs[thing](ctx, s, things, Key{Partition: "a"})
		require.NoError(t, err)
		assert.Equal(t, int64(7), got.Count)

		other, err := GetAs[thing](ctx, s, things, Key{Partition: "b"})
		require.NoError(t, err)
		assert.Equal(t, thing{ID: "b", Owner: "u2", Count: 2}, *other)
	})
}

func TestStore_GetMissing(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s Store) {
		_, err := GetAs[thing](context.Background(), s, things, Key{Partition: "nope"})
		require.ErrorIs(t, err, common.ErrorNotFound)
		assert.True(t, IsNotFound(err))
	})
}

func TestStore_PutRequiresKey(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s Store) {
		err := s.Put(context.Background(), things, thing{Owner: "u1"})
		require.ErrorIs(t, err, common.ErrValidation)
	})
}

func TestStore_InsertDuplicate(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		require.NoError(t, s.Insert(ctx, things, thing{ID: "a", Count: 1}))
		err := s.Insert(ctx, things, thing{ID: "a", Count: 99})
		require.ErrorIs(t, err, common.ErrAlreadyExists)

		got, err := GetAs[thing](ctx, s, things, Key{Partition: "a"})
		require.NoError(t, err)
		assert.Equal(t, int64(1), got.Count)
	})
}

func TestStore_ScanFilterKeepsInsertionOrder(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		for i, owner := range []string{"u1", "u2", "u1", "u1"} {
			require.NoError(t, s.Put(ctx, things, thing{ID: fmt.Sprintf("t%d", i), Owner: owner}))
		}

		got, err := ScanAll[thing](ctx, s, things, Where("owner", "u1"))
		require.NoError(t, err)
		ids := make([]string, 0, len(got))
		for _, th := range got {
			ids = append(ids, th.ID)
		}
		if diff := cmp.Diff([]string{"t0", "t2", "t3"}, ids); diff != "" {
			t.Fatalf("scan mismatch (-want +got):\n%s", diff)
		}

		all, err := ScanAll[thing](ctx, s, things, nil)
		require.NoError(t, err)
		assert.Len(t, all, 4)

		none, err := ScanAll[thing](ctx, s, things, Where("owner", "u1").And("state", "active"))
		require.NoError(t, err)
		assert.Empty(t, none)
	})
}

func TestStore_FilterComparesTypes(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		require.NoError(t, s.Put(ctx, things, thing{ID: "a", State: "true", Count: 3}))
		require.NoError(t, s.Put(ctx, things, map[string]any{"id": "b", "state": true, "count": 3}))

		byString, err := ScanAll[map[string]any](ctx, s, things, Where("state", "true"))
		require.NoError(t, err)
		require.Len(t, byString, 1)
		assert.Equal(t, "a", byString[0]["id"])

		byBool, err := ScanAll[map[string]any](ctx, s, things, Where("state", true))
		require.NoError(t, err)
		require.Len(t, byBool, 1)
		assert.Equal(t, "b", byBool[0]["id"])

		byNumber, err := ScanAll[thing](ctx, s, things, Where("id", "a").And("count", 3))
		require.NoError(t, err)
		assert.Len(t, byNumber, 1)

		none, err := ScanAll[thing](ctx, s, things, Where("count", "3"))
		require.NoError(t, err)
		assert.Empty(t, none)

		err = s.Update(ctx, things, Key{Partition: "a"}, Add("count", 1).If("count", "3"), nil)
		require.ErrorIs(t, err, common.ErrConflict)
		err = s.Update(ctx, things, Key{Partition: "a"}, Add("count", 1).If("count", 3), nil)
		require.NoError(t, err)
	})
}

func TestStore_ScanVisitorErrorStops(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		require.NoError(t, s.Put(ctx, things, thing{ID: "a"}))
		require.NoError(t, s.Put(ctx, things, thing{ID: "b"}))

		boom := fmt.Errorf("boom")
		calls := 0
		err := s.Scan(ctx, things, nil, func(Decoder) error {
			calls++
			return boom
		})
		require.ErrorIs(t, err, boom)
		assert.Equal(t, 1, calls)
	})
}

func TestStore_ConcurrentAdd(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		require.NoError(t, s.Insert(ctx, things, thing{ID: "counter"}))

		const n = 40
		var wg sync.WaitGroup
		errs := make(chan error, n)
		for i := 0; i < n; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				errs <- s.Update(ctx, things, Key{Partition: "counter"}, Add("count", 1), nil)
			}()
		}
		wg.Wait()
		close(errs)
		for err := range errs {
			require.NoError(t, err)
		}

		got, err := GetAs[thing](ctx, s, things, Key{Partition: "counter"})
		require.NoError(t, err)
		assert.Equal(t, int64(n), got.Count)
	})
}

func TestStore_UpdateConditional(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		k := Key{Partition: "a"}
		require.NoError(t, s.Put(ctx, things, thing{ID: "a", State: "active", Count: 1}))

		var out thing
		err := s.Update(ctx, things, k, Set("state", "cancelled").Add("count", 2).If("state", "active"), &out)
		require.NoError(t, err)
		assert.Equal(t, thing{ID: "a", State: "cancelled", Count: 3}, out)

		err = s.Update(ctx, things, k, Set("state", "active").If("state", "active"), nil)
		require.ErrorIs(t, err, common.ErrConflict)

		got, err := GetAs[thing](ctx, s, things, k)
		require.NoError(t, err)
		assert.Equal(t, "cancelled", got.State)
	})
}

func TestStore_UpdateMissingAndEmpty(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		err := s.Update(ctx, things, Key{Partition: "ghost"}, Add("count", 1), nil)
		require.ErrorIs(t, err, common.ErrorNotFound)

		require.NoError(t, s.Put(ctx, things, thing{ID: "a"}))
		err = s.Update(ctx, things, Key{Partition: "a"}, &Update{}, nil)
		require.ErrorIs(t, err, common.ErrValidation)
	})
}

func TestStore_Delete(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		require.NoError(t, s.Insert(ctx, edges, edge{From: "u1", To: "u2"}))
		require.NoError(t, s.Insert(ctx, edges, edge{From: "u1", To: "u3"}))

		require.NoError(t, s.Delete(ctx, edges, Key{Partition: "u9", Sort: "u2"}))
		require.NoError(t, s.Delete(ctx, edges, Key{Partition: "u1", Sort: "u2"}))

		got, err := ScanAll[edge](ctx, s, edges, Where("from", "u1"))
		require.NoError(t, err)
		assert.Equal(t, []edge{{From: "u1", To: "u3"}}, got)

		// the deleted key can be inserted again
		require.NoError(t, s.Insert(ctx, edges, edge{From: "u1", To: "u2"}))
	})
}

func TestStore_CompositeKeyUniqueness(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		require.NoError(t, s.Insert(ctx, edges, edge{From: "u1", To: "u2"}))
		require.NoError(t, s.Insert(ctx, edges, edge{From: "u2", To: "u1"}))
		require.ErrorIs(t, s.Insert(ctx, edges, edge{From: "u1", To: "u2"}), common.ErrAlreadyExists)

		require.ErrorIs(t, s.Insert(ctx, edges, edge{From: "u1"}), common.ErrValidation)
	})
}

func TestStore_CanceledContext(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s Store) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		require.ErrorIs(t, s.Put(ctx, things, thing{ID: "a"}), context.Canceled)
	})
}

func TestKey_String(t *testing.T) {
	assert.Equal(t, "a", Key{Partition: "a"}.String())
	assert.Equal(t, "a/b", Key{Partition: "a", Sort: "b"}.String())
}

func TestFilter_AndDoesNotAlias(t *testing.T) {
	base := Where("a", 1)
	f1 := base.And("b", 2)
	f2 := base.And("c", 3)
	assert.Equal(t, "b", f1[1].Field)
	assert.Equal(t, "c", f2[1].Field)
	assert.Len(t, base, 1)
}

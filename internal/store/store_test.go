package store

import (
	"fmt"
	"math/rand"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/theirongolddev/rab/internal/model"
)

func draft(desc string, vol float64) model.Draft {
	return model.Draft{Description: desc, Volume: vol, Unit: "m3", LaborUnitPrice: 1000}
}

func ids(items []model.LineItem) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.ID
	}
	return out
}

func TestAddAppendsInOrder(t *testing.T) {
	s := New()
	a := s.Add(draft("Galian Tanah", 10))
	b := s.Add(draft("Urugan Pasir", 2))

	require.NotEmpty(t, a.ID)
	require.NotEqual(t, a.ID, b.ID)

	list := s.List()
	require.Len(t, list, 2)
	assert.Equal(t, []string{a.ID, b.ID}, ids(list))
	assert.Equal(t, "Galian Tanah", list[0].Description)
}

func TestRemoveIsIdempotent(t *testing.T) {
	s := New()
	a := s.Add(draft("a", 1))
	b := s.Add(draft("b", 1))
	c := s.Add(draft("c", 1))

	assert.True(t, s.Remove(b.ID))
	assert.Equal(t, []string{a.ID, c.ID}, ids(s.List()))

	v := s.Version()
	assert.False(t, s.Remove(b.ID))
	assert.False(t, s.Remove("does-not-exist"))
	assert.Equal(t, []string{a.ID, c.ID}, ids(s.List()))
	assert.Equal(t, v, s.Version(), "no-op remove must not count as a mutation")

	got, ok := s.Get(c.ID)
	require.True(t, ok)
	assert.Equal(t, "c", got.Description)
}

func TestReplaceAllAssignsFreshIDs(t *testing.T) {
	s := New()
	old := s.Add(draft("old", 1))

	items := s.ReplaceAll([]model.Draft{draft("x", 1), draft("y", 2), draft("x", 1)})
	require.Len(t, items, 3)

	seen := map[string]bool{old.ID: true}
	for _, it := range items {
		assert.False(t, seen[it.ID], "id %s reused", it.ID)
		seen[it.ID] = true
	}
	assert.Equal(t, []string{"x", "y", "x"}, []string{items[0].Description, items[1].Description, items[2].Description})
	_, ok := s.Get(old.ID)
	assert.False(t, ok)

	again := s.ReplaceAll([]model.Draft{draft("x", 1)})
	for _, it := range again {
		assert.False(t, seen[it.ID])
	}
}

func TestReplaceAllEmpty(t *testing.T) {
	s := New()
	s.Add(draft("a", 1))
	s.ReplaceAll(nil)
	assert.Empty(t, s.List())
	assert.Equal(t, 0, s.Len())
}

func TestListIsSnapshot(t *testing.T) {
	s := New()
	s.Add(draft("a", 1))

	list := s.List()
	list[0].Description = "mutated"
	_ = append(list, model.LineItem{ID: "fake"})

	fresh := s.List()
	require.Len(t, fresh, 1)
	assert.Equal(t, "a", fresh[0].Description)
}

func TestIDCollisionIsRedrawn(t *testing.T) {
	seq := []string{"dup", "dup", "", "dup", "other"}
	i := 0
	s := New(WithIDFunc(func() string {
		id := seq[i]
		i++
		return id
	}))
	a := s.Add(draft("a", 1))
	b := s.Add(draft("b", 1))
	assert.Equal(t, "dup", a.ID)
	assert.Equal(t, "other", b.ID)
}

// TestRandomOperations checks the collection invariants over random
// sequences of add, remove, and replaceAll against a simple model.
func TestRandomOperations(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for run := 0; run < 50; run++ {
		s := New()
		var want []string
		everIssued := map[string]bool{}

		for step := 0; step < 100; step++ {
			switch op := rng.Intn(10); {
			case op < 5:
				it := s.Add(draft(fmt.Sprintf("item-%d", step), float64(step)))
				require.False(t, everIssued[it.ID], "id reused")
				everIssued[it.ID] = true
				want = append(want, it.ID)
			case op < 9:
				var id string
				if len(want) > 0 && rng.Intn(4) != 0 {
					id = want[rng.Intn(len(want))]
				} else {
					id = fmt.Sprintf("absent-%d", step)
				}
				s.Remove(id)
				for i, w := range want {
					if w == id {
						want = append(want[:i], want[i+1:]...)
						break
					}
				}
			default:
				n := rng.Intn(4)
				drafts := make([]model.Draft, n)
				for i := range drafts {
					drafts[i] = draft("r", 1)
				}
				items := s.ReplaceAll(drafts)
				want = want[:0]
				for _, it := range items {
					require.False(t, everIssued[it.ID], "id reused")
					everIssued[it.ID] = true
					want = append(want, it.ID)
				}
			}

			got := ids(s.List())
			if len(want) == 0 {
				require.Empty(t, got)
			} else {
				require.Equal(t, want, got)
			}
			unique := map[string]bool{}
			for _, id := range got {
				require.False(t, unique[id], "duplicate id in collection")
				unique[id] = true
			}
		}
	}
}

func TestConcurrentAccess(t *testing.T) {
	s := New()
	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				it := s.Add(draft("c", 1))
				_ = s.List()
				if i%2 == 0 {
					s.Remove(it.ID)
				}
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 400, s.Len())
}

package service

import (
	"testing"

	"github.com/hanush21/anime-recommender/internal/models"
)

func list(dst ...int) models.NeighborList {
	out := make(models.NeighborList, 0, len(dst))
	for _, d := range dst {
		out = append(out, models.SimilarityEdge{DstID: d})
	}
	return out
}

func TestNeighborMemo_Width(t *testing.T) {
	m := newNeighborMemo(4)
	m.add(1, 10, list(2, 3))

	if _, ok := m.get(1, 20); ok {
		t.Error("get with wider width should miss")
	}
	if got, ok := m.get(1, 5); !ok || len(got) != 2 {
		t.Errorf("get(1, 5) = %v, %v", got, ok)
	}

	// una lista más angosta no pisa a la más ancha
	m.add(1, 5, list(2))
	if got, ok := m.get(1, 10); !ok || len(got) != 2 {
		t.Errorf("narrow add replaced wider list: %v, %v", got, ok)
	}
	m.add(1, 30, list(2, 3, 4))
	if got, ok := m.get(1, 30); !ok || len(got) != 3 {
		t.Errorf("get(1, 30) = %v, %v", got, ok)
	}
}

func TestNeighborMemo_EvictsLeastRecentlyUsed(t *testing.T) {
	m := newNeighborMemo(2)
	m.add(1, 10, list(2))
	m.add(2, 10, list(1))
	m.get(1, 10) // 2 queda como el menos usado
	m.add(3, 10, list(1))

	if m.len() != 2 {
		t.Fatalf("len = %d, want 2", m.len())
	}
	if _, ok := m.get(2, 10); ok {
		t.Error("key 2 should have been evicted")
	}
	for _, k := range []int{1, 3} {
		if _, ok := m.get(k, 10); !ok {
			t.Errorf("key %d missing", k)
		}
	}
}

func TestNeighborMemo_DefaultCapacity(t *testing.T) {
	m := newNeighborMemo(0)
	if m.capacity != memoCapacity {
		t.Errorf("capacity = %d, want %d", m.capacity, memoCapacity)
	}
}

package service

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/hanush21/anime-recommender/internal/cache"
	"github.com/hanush21/anime-recommender/internal/models"
	"github.com/hanush21/anime-recommender/internal/neighbors"
)

func newTestService(t *testing.T, build BuildFunc) *RecommendService {
	t.Helper()
	return NewRecommendService(NewRegistry(build), cache.New(nil, 0), 3)
}

func TestRecommendService_DefaultsMinPeriods(t *testing.T) {
	var calls atomic.Int32
	s := newTestService(t, countingBuild(t, &calls, nil))
	ctx := context.Background()

	items, err := s.SimilarItems(ctx, "Alpha Saga", 1, 0, "")
	if err != nil {
		t.Fatalf("SimilarItems: %v", err)
	}
	if len(items) != 1 || items[0].AnimeID != 2 {
		t.Errorf("items = %+v", items)
	}
	if st := s.Status(); st.MinPeriods != 3 || st.State != models.StateReady {
		t.Errorf("status = %+v", st)
	}

	// mismo min_periods explícito: no reconstruye
	if _, err := s.Titles(ctx, "", 10, 0, 3, 0); err != nil {
		t.Fatal(err)
	}
	if n := calls.Load(); n != 1 {
		t.Errorf("builds = %d, want 1", n)
	}

	if got := NewRecommendService(NewRegistry(nil), nil, 0).DefaultMinPeriods(); got != 3 {
		t.Errorf("DefaultMinPeriods() = %d, want 3", got)
	}
}

func TestRecommendService_RecommendForSeen(t *testing.T) {
	var calls atomic.Int32
	s := newTestService(t, countingBuild(t, &calls, nil))

	got, err := s.RecommendForSeen(context.Background(), models.SeenQuery{
		SeenIDs:       []int{1},
		DefaultRating: DefaultSeenRating,
	}, 3)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[0].AnimeID != 2 {
		t.Errorf("got %+v", got)
	}
}

func TestRecommendService_ErrorsPropagate(t *testing.T) {
	var calls atomic.Int32
	s := newTestService(t, countingBuild(t, &calls, func(int32) bool { return true }))
	ctx := context.Background()

	if _, err := s.SimilarItems(ctx, "Alpha Saga", 10, 3, ""); !errors.Is(err, models.ErrNotReady) {
		t.Errorf("SimilarItems err = %v, want ErrNotReady", err)
	}
	if _, err := s.Titles(ctx, "", 10, 0, 3, 0); !errors.Is(err, models.ErrNotReady) {
		t.Errorf("Titles err = %v, want ErrNotReady", err)
	}
	if st := s.Status(); st.State != models.StateFailed {
		t.Errorf("status = %+v, want failed", st)
	}

	ok := newTestService(t, countingBuild(t, &calls, nil))
	if _, err := ok.SimilarItems(ctx, "no such anime", 10, 3, ""); !errors.Is(err, models.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestRecommendService_ReloadPicksUpNewGeneration(t *testing.T) {
	src := scenarioSources(t)
	s := NewRecommendService(NewEngineRegistry(src, EngineConfig{}), cache.New(nil, 0), 3)
	ctx := context.Background()

	if _, err := s.SimilarItems(ctx, "Alpha Saga", 1, 3, ""); err != nil {
		t.Fatal(err)
	}
	if st := s.Status(); st.Mode != models.ModeFallback {
		t.Fatalf("mode = %q, want fallback", st.Mode)
	}

	if _, err := neighbors.Build(ctx, src.Ratings, src.Neighbors, neighbors.BuildOptions{MinPeriods: 3}); err != nil {
		t.Fatal(err)
	}
	st, err := s.Reload(ctx, 0)
	if err != nil {
		t.Fatalf("Reload: %v", err)
	}
	if st.Mode != models.ModeCached || st.Generation != "neighbors_top50_mp3" {
		t.Errorf("status after reload = %+v", st)
	}
}

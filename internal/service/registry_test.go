package service

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/hanush21/anime-recommender/internal/models"
)

func countingBuild(t *testing.T, calls *atomic.Int32, fail func(n int32) bool) BuildFunc {
	t.Helper()
	src := scenarioSources(t)
	return func(ctx context.Context, minPeriods int) (*Engine, error) {
		n := calls.Add(1)
		if fail != nil && fail(n) {
			return nil, errors.New("ratings file missing")
		}
		return NewEngine(ctx, src, EngineConfig{MinPeriods: minPeriods})
	}
}

func TestRegistry_StatusBeforeBuild(t *testing.T) {
	r := NewRegistry(func(ctx context.Context, mp int) (*Engine, error) {
		t.Fatal("build should not run")
		return nil, nil
	})
	st := r.Status()
	if st.State != models.StateUnbuilt || st.Ready {
		t.Errorf("status = %+v, want unbuilt", st)
	}
	if r.Current() != nil {
		t.Error("Current() != nil before any build")
	}
}

func TestRegistry_ConcurrentGetOrBuildBuildsOnce(t *testing.T) {
	var calls atomic.Int32
	r := NewRegistry(countingBuild(t, &calls, nil))

	var wg sync.WaitGroup
	errs := make(chan error, 16)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			e, err := r.GetOrBuild(context.Background(), 3)
			if err != nil {
				errs <- err
				return
			}
			if e.MinPeriods() != 3 {
				errs <- errors.New("wrong min_periods")
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Error(err)
	}

	if n := calls.Load(); n != 1 {
		t.Errorf("builds = %d, want 1", n)
	}
	st := r.Status()
	if st.State != models.StateReady || st.MinPeriods != 3 || st.Mode != models.ModeFallback {
		t.Errorf("status = %+v", st)
	}
}

func TestRegistry_RebuildAndGetOrBuildShareOneBuild(t *testing.T) {
	tests := []struct {
		name        string
		first, then func(r *Registry) error
	}{
		{
			name:  "rebuild then get",
			first: func(r *Registry) error { _, err := r.Rebuild(context.Background(), 3); return err },
			then:  func(r *Registry) error { _, err := r.GetOrBuild(context.Background(), 3); return err },
		},
		{
			name:  "get then rebuild",
			first: func(r *Registry) error { _, err := r.GetOrBuild(context.Background(), 3); return err },
			then:  func(r *Registry) error { _, err := r.Rebuild(context.Background(), 3); return err },
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls atomic.Int32
			release := make(chan struct{})
			src := scenarioSources(t)
			r := NewRegistry(func(ctx context.Context, mp int) (*Engine, error) {
				calls.Add(1)
				<-release
				return NewEngine(ctx, src, EngineConfig{MinPeriods: mp})
			})

			errs := make(chan error, 2)
			go func() { errs <- tt.first(r) }()

			deadline := time.Now().Add(2 * time.Second)
			for r.Status().State != models.StateBuilding {
				if time.Now().After(deadline) {
					t.Fatal("first build never started")
				}
				time.Sleep(time.Millisecond)
			}
			go func() { errs <- tt.then(r) }()
			// el segundo llamador tiene que llegar mientras el build sigue abierto
			time.Sleep(50 * time.Millisecond)
			close(release)

			for i := 0; i < 2; i++ {
				if err := <-errs; err != nil {
					t.Fatal(err)
				}
			}
			if n := calls.Load(); n != 1 {
				t.Errorf("builds = %d, want 1", n)
			}
		})
	}
}

func TestRegistry_SwapsOnDifferentMinPeriods(t *testing.T) {
	var calls atomic.Int32
	r := NewRegistry(countingBuild(t, &calls, nil))
	ctx := context.Background()

	first, err := r.GetOrBuild(ctx, 3)
	if err != nil {
		t.Fatal(err)
	}
	second, err := r.GetOrBuild(ctx, 2)
	if err != nil {
		t.Fatal(err)
	}
	if second.MinPeriods() != 2 || r.Current() != second {
		t.Errorf("current min_periods = %d", r.Current().MinPeriods())
	}
	// el motor anterior sigue respondiendo
	if _, err := first.SimilarItems("Alpha Saga", 1, ""); err != nil {
		t.Errorf("old engine: %v", err)
	}
	if n := calls.Load(); n != 2 {
		t.Errorf("builds = %d, want 2", n)
	}
}

func TestRegistry_FailedBuildIsNotRetried(t *testing.T) {
	var calls atomic.Int32
	r := NewRegistry(countingBuild(t, &calls, func(n int32) bool { return n == 1 }))
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := r.GetOrBuild(ctx, 3)
		if !errors.Is(err, models.ErrNotReady) {
			t.Fatalf("attempt %d: err = %v, want ErrNotReady", i, err)
		}
	}
	if n := calls.Load(); n != 1 {
		t.Errorf("builds = %d, want 1", n)
	}
	st := r.Status()
	if st.State != models.StateFailed || st.Error == "" {
		t.Errorf("status = %+v, want failed", st)
	}

	e, err := r.Rebuild(ctx, 3)
	if err != nil {
		t.Fatalf("Rebuild: %v", err)
	}
	if e == nil || r.Status().State != models.StateReady {
		t.Errorf("status after rebuild = %+v", r.Status())
	}
	if _, err := r.GetOrBuild(ctx, 3); err != nil {
		t.Errorf("GetOrBuild after rebuild: %v", err)
	}
	if n := calls.Load(); n != 2 {
		t.Errorf("builds = %d, want 2", n)
	}
}

func TestRegistry_RebuildReplacesEngine(t *testing.T) {
	var calls atomic.Int32
	r := NewRegistry(countingBuild(t, &calls, nil))
	ctx := context.Background()

	first, err := r.GetOrBuild(ctx, 3)
	if err != nil {
		t.Fatal(err)
	}
	second, err := r.Rebuild(ctx, 3)
	if err != nil {
		t.Fatal(err)
	}
	if first == second || r.Current() != second {
		t.Error("Rebuild did not publish a new engine")
	}
}

func TestRegistry_StatusWhileBuilding(t *testing.T) {
	release := make(chan struct{})
	src := scenarioSources(t)
	r := NewRegistry(func(ctx context.Context, mp int) (*Engine, error) {
		<-release
		return NewEngine(ctx, src, EngineConfig{MinPeriods: mp})
	})

	done := make(chan error, 1)
	go func() {
		done <- r.Warmup(context.Background(), 4)
	}()

	deadline := time.Now().Add(2 * time.Second)
	for r.Status().State != models.StateBuilding {
		if time.Now().After(deadline) {
			t.Fatal("status never reported building")
		}
		time.Sleep(5 * time.Millisecond)
	}
	if st := r.Status(); st.MinPeriods != 4 || st.Ready {
		t.Errorf("status = %+v", st)
	}

	close(release)
	if err := <-done; err != nil {
		t.Fatalf("Warmup: %v", err)
	}
	if st := r.Status(); st.State != models.StateReady || st.MinPeriods != 4 {
		t.Errorf("status = %+v", st)
	}
}

func TestRegistry_BuildSurvivesCallerCancel(t *testing.T) {
	var calls atomic.Int32
	src := scenarioSources(t)
	r := NewRegistry(func(ctx context.Context, mp int) (*Engine, error) {
		calls.Add(1)
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return NewEngine(ctx, src, EngineConfig{MinPeriods: mp})
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := r.GetOrBuild(ctx, 3); err != nil {
		t.Fatalf("GetOrBuild with cancelled caller: %v", err)
	}
	if r.Current() == nil {
		t.Error("engine not published")
	}
}

package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"

	"github.com/hanush21/anime-recommender/internal/cache"
	"github.com/hanush21/anime-recommender/internal/catalog"
	"github.com/hanush21/anime-recommender/internal/config"
	"github.com/hanush21/anime-recommender/internal/models"
	"github.com/hanush21/anime-recommender/internal/neighbors"
	"github.com/hanush21/anime-recommender/internal/ratings"
	"github.com/hanush21/anime-recommender/internal/service"
)

const testSecret = "test-secret"

func testSources(t *testing.T) service.EngineSources {
	t.Helper()
	return service.EngineSources{
		Ratings: ratings.Records{
			{UserID: 1, ItemID: 1, Rating: 9}, {UserID: 1, ItemID: 2, Rating: 8}, {UserID: 1, ItemID: 3, Rating: 2},
			{UserID: 2, ItemID: 1, Rating: 8}, {UserID: 2, ItemID: 2, Rating: 9}, {UserID: 2, ItemID: 3, Rating: 3},
			{UserID: 3, ItemID: 1, Rating: 2}, {UserID: 3, ItemID: 2, Rating: 3}, {UserID: 3, ItemID: 3, Rating: 9},
		},
		Catalog: catalog.Docs{
			{AnimeID: 1, Name: "Alpha Saga", Members: 1000, Genre: "Action", Episodes: 12},
			{AnimeID: 2, Name: "Zeta Beta", Members: 900, Genre: "Action", Episodes: 24},
			{AnimeID: 3, Name: "Gamma", Members: 800, Genre: "Drama", Episodes: 1},
		},
		Neighbors: neighbors.NewFileStore(t.TempDir()),
	}
}

func newTestRouter(t *testing.T, registry *service.Registry, src service.EngineSources) http.Handler {
	t.Helper()
	cfg := &config.Config{MinPeriods: 3, CacheTopK: 50}
	recSvc := service.NewRecommendService(registry, cache.New(nil, 0), cfg.MinPeriods)
	adminSvc := service.NewAdminMaintenanceService(cfg, src.Ratings, src.Neighbors)

	r := chi.NewRouter()
	r.Get("/health", Health)
	MountRecommendRoutes(r, NewRecommendHandler(recSvc))
	MountAdminMaintenanceRoutes(r, NewAdminMaintenanceHandler(adminSvc, recSvc), testSecret)
	return r
}

func readyRouter(t *testing.T) http.Handler {
	t.Helper()
	src := testSources(t)
	return newTestRouter(t, service.NewEngineRegistry(src, service.EngineConfig{}), src)
}

func do(t *testing.T, h http.Handler, method, target, body string, header http.Header) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range header {
		req.Header[k] = v
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return v
}

func TestHealth(t *testing.T) {
	rec := do(t, readyRouter(t), http.MethodGet, "/health", "", nil)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"ok"`) {
		t.Errorf("GET /health = %d %s", rec.Code, rec.Body.String())
	}
}

func TestGetRecomenders(t *testing.T) {
	h := readyRouter(t)

	tests := []struct {
		name     string
		target   string
		wantCode int
		wantIDs  []int
	}{
		{"ok", "/getrecomenders?q=Alpha+Saga&topk=1", http.StatusOK, []int{2}},
		{"order by name", "/getrecomenders?q=alpha&order=name", http.StatusOK, []int{3, 2}},
		{"missing q", "/getrecomenders", http.StatusBadRequest, nil},
		{"unknown title", "/getrecomenders?q=Nope+Nope", http.StatusNotFound, nil},
		{"bad topk", "/getrecomenders?q=Alpha&topk=ten", http.StatusBadRequest, nil},
		{"bad order", "/getrecomenders?q=Alpha&order=rank", http.StatusBadRequest, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, h, http.MethodGet, tt.target, "", nil)
			if rec.Code != tt.wantCode {
				t.Fatalf("code = %d, want %d (%s)", rec.Code, tt.wantCode, rec.Body.String())
			}
			if tt.wantCode != http.StatusOK {
				if body := decode[errorBody](t, rec); body.Error == "" {
					t.Error("error body without message")
				}
				return
			}
			items := decode[[]models.SimilarItem](t, rec)
			if len(items) != len(tt.wantIDs) {
				t.Fatalf("items = %+v, want ids %v", items, tt.wantIDs)
			}
			for i, id := range tt.wantIDs {
				if items[i].AnimeID != id {
					t.Errorf("pos %d = %d, want %d", i, items[i].AnimeID, id)
				}
			}
		})
	}
}

func TestPostRecommendBySeen(t *testing.T) {
	h := readyRouter(t)

	tests := []struct {
		name     string
		body     string
		wantCode int
		wantIDs  []int
	}{
		{"by id", `{"seen_ids":[1]}`, http.StatusOK, []int{2, 3}},
		{"by name with overrides", `{"seen_names":["Alpha Saga"],"ratings":{"1":-5}}`, http.StatusOK, []int{3, 2}},
		{"seen excluded", `{"seen_ids":[1,2],"topk":5}`, http.StatusOK, []int{3}},
		{"nothing seen", `{}`, http.StatusBadRequest, nil},
		{"empty body", ``, http.StatusBadRequest, nil},
		{"invalid json", `{"seen_ids":`, http.StatusBadRequest, nil},
		{"bad ratings key", `{"seen_ids":[1],"ratings":{"abc":3}}`, http.StatusBadRequest, nil},
		{"bad order", `{"seen_ids":[1],"order":"rank"}`, http.StatusBadRequest, nil},
		{"negative topk", `{"seen_ids":[1],"topk":-1}`, http.StatusBadRequest, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, h, http.MethodPost, "/recommend_by_seen", tt.body, nil)
			if rec.Code != tt.wantCode {
				t.Fatalf("code = %d, want %d (%s)", rec.Code, tt.wantCode, rec.Body.String())
			}
			if tt.wantCode != http.StatusOK {
				return
			}
			items := decode[[]models.RecItem](t, rec)
			if len(items) != len(tt.wantIDs) {
				t.Fatalf("items = %+v, want ids %v", items, tt.wantIDs)
			}
			for i, id := range tt.wantIDs {
				if items[i].AnimeID != id {
					t.Errorf("pos %d = %d, want %d", i, items[i].AnimeID, id)
				}
			}
		})
	}
}

func TestGetTitles(t *testing.T) {
	h := readyRouter(t)

	rec := do(t, h, http.MethodGet, "/titles?s=ta", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("code = %d", rec.Code)
	}
	page := decode[models.TitlePage](t, rec)
	if page.Count != 1 || page.Results[0].AnimeID != 2 || page.Results[0].RatingCount != 3 {
		t.Errorf("page = %+v", page)
	}

	rec = do(t, h, http.MethodGet, "/titles?limit=2&offset=1", "", nil)
	page = decode[models.TitlePage](t, rec)
	if page.Count != 3 || len(page.Results) != 2 || page.Results[0].Name != "Gamma" {
		t.Errorf("page = %+v", page)
	}

	if rec := do(t, h, http.MethodGet, "/titles?offset=x", "", nil); rec.Code != http.StatusBadRequest {
		t.Errorf("bad offset code = %d", rec.Code)
	}
}

func TestGetStatus(t *testing.T) {
	h := readyRouter(t)

	st := decode[models.EngineState](t, do(t, h, http.MethodGet, "/recommender/status", "", nil))
	if st.State != models.StateUnbuilt {
		t.Errorf("state before queries = %q", st.State)
	}

	do(t, h, http.MethodGet, "/getrecomenders?q=Alpha", "", nil)
	st = decode[models.EngineState](t, do(t, h, http.MethodGet, "/recommender/status", "", nil))
	if !st.Ready || st.State != models.StateReady || st.Items != 3 || st.Users != 3 || st.Ratings != 9 {
		t.Errorf("status = %+v", st)
	}
}

func TestNotReadyIs503(t *testing.T) {
	src := testSources(t)
	registry := service.NewRegistry(func(ctx context.Context, mp int) (*service.Engine, error) {
		return nil, errors.New("anime.csv missing")
	})
	h := newTestRouter(t, registry, src)

	for _, target := range []string{"/getrecomenders?q=Alpha", "/titles"} {
		if rec := do(t, h, http.MethodGet, target, "", nil); rec.Code != http.StatusServiceUnavailable {
			t.Errorf("GET %s = %d, want 503", target, rec.Code)
		}
	}
	if rec := do(t, h, http.MethodPost, "/recommend_by_seen", `{"seen_ids":[1]}`, nil); rec.Code != http.StatusServiceUnavailable {
		t.Errorf("POST /recommend_by_seen = %d, want 503", rec.Code)
	}
	st := decode[models.EngineState](t, do(t, h, http.MethodGet, "/recommender/status", "", nil))
	if st.State != models.StateFailed {
		t.Errorf("state = %q, want failed", st.State)
	}
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{models.ErrNotFound, http.StatusNotFound},
		{models.ErrInvalidParameter, http.StatusBadRequest},
		{models.ErrNotReady, http.StatusServiceUnavailable},
		{service.ErrRebuildRunning, http.StatusConflict},
		{models.ErrLoad, http.StatusInternalServerError},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			if got := statusFor(tt.err); got != tt.want {
				t.Errorf("statusFor = %d, want %d", got, tt.want)
			}
		})
	}
}

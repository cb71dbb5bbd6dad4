package handler

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/hanush21/anime-recommender/internal/models"
	"github.com/hanush21/anime-recommender/internal/service"
)

type RecommendHandler struct {
	svc *service.RecommendService
}

func NewRecommendHandler(s *service.RecommendService) *RecommendHandler {
	return &RecommendHandler{svc: s}
}

// @Summary Animes similares a un título
// @Tags recommend
// @Produce json
// @Param q query string true "título o fragmento"
// @Param topk query int false "cantidad (default 10, máx 500)"
// @Param minp query int false "mínimo de usuarios en común (default 3)"
// @Param order query string false "score | name"
// @Success 200 {array} models.SimilarItem
// @Router /getrecomenders [get]
func (h *RecommendHandler) GetRecomenders(w http.ResponseWriter, r *http.Request) {
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	if q == "" {
		writeMessage(w, http.StatusBadRequest, "Parámetro 'q' requerido.")
		return
	}
	topk, err := queryInt(r, "topk", service.DefaultTopK)
	if err != nil {
		writeError(w, r, err)
		return
	}
	minp, err := queryInt(r, "minp", h.svc.DefaultMinPeriods())
	if err != nil {
		writeError(w, r, err)
		return
	}

	items, err := h.svc.SimilarItems(r.Context(), q, topk, minp, r.URL.Query().Get("order"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

// @Summary Recomendaciones a partir de animes vistos
// @Tags recommend
// @Accept json
// @Produce json
// @Param body body models.SeenRequest true "vistos, ratings opcionales, topk"
// @Success 200 {array} models.RecItem
// @Router /recommend_by_seen [post]
func (h *RecommendHandler) PostRecommendBySeen(w http.ResponseWriter, r *http.Request) {
	var req models.SeenRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if len(req.SeenNames) == 0 && len(req.SeenIDs) == 0 {
		writeMessage(w, http.StatusBadRequest, "Debes enviar 'seen_names' o 'seen_ids'.")
		return
	}

	q, err := toSeenQuery(req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	// minp por query string tiene prioridad sobre el body
	minp, err := queryInt(r, "minp", req.MinP)
	if err != nil {
		writeError(w, r, err)
		return
	}

	items, err := h.svc.RecommendForSeen(r.Context(), q, minp)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func toSeenQuery(req models.SeenRequest) (models.SeenQuery, error) {
	q := models.SeenQuery{
		SeenIDs:       req.SeenIDs,
		SeenNames:     req.SeenNames,
		DefaultRating: service.DefaultSeenRating,
		TopK:          req.TopK,
		Order:         req.Order,
	}
	if req.Rating != nil {
		q.DefaultRating = *req.Rating
	}
	if len(req.Ratings) > 0 {
		q.RatingOverrides = make(map[int]float64, len(req.Ratings))
		for k, v := range req.Ratings {
			id, err := strconv.Atoi(strings.TrimSpace(k))
			if err != nil {
				return q, fmt.Errorf("%w: ratings: clave %q no es un anime_id", models.ErrInvalidParameter, k)
			}
			q.RatingOverrides[id] = v
		}
	}
	return q, nil
}

// @Summary Autocompletado y listado de títulos
// @Tags recommend
// @Produce json
// @Param s query string false "fragmento del título (mínimo 2 caracteres)"
// @Param limit query int false "default 50, máx 500"
// @Param offset query int false "default 0"
// @Param minp query int false "min_periods del motor"
// @Param min_r query int false "mínimo de ratings"
// @Success 200 {object} models.TitlePage
// @Router /titles [get]
func (h *RecommendHandler) GetTitles(w http.ResponseWriter, r *http.Request) {
	s := strings.TrimSpace(r.URL.Query().Get("s"))
	limit, err := queryInt(r, "limit", 50)
	if err != nil {
		writeError(w, r, err)
		return
	}
	offset, err := queryInt(r, "offset", 0)
	if err != nil {
		writeError(w, r, err)
		return
	}
	minp, err := queryInt(r, "minp", h.svc.DefaultMinPeriods())
	if err != nil {
		writeError(w, r, err)
		return
	}
	minR, err := queryInt(r, "min_r", 0)
	if err != nil {
		writeError(w, r, err)
		return
	}

	page, err := h.svc.Titles(r.Context(), s, max(1, limit), offset, minp, minR)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

// @Summary Estado del motor de recomendación
// @Tags recommend
// @Produce json
// @Success 200 {object} models.EngineState
// @Router /recommender/status [get]
func (h *RecommendHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.Status())
}

// Helper para montar rutas públicas en main.go
func MountRecommendRoutes(r chi.Router, h *RecommendHandler) {
	r.Get("/getrecomenders", h.GetRecomenders)
	r.Post("/recommend_by_seen", h.PostRecommendBySeen)
	r.Get("/titles", h.GetTitles)
	r.Get("/recommender/status", h.GetStatus)
}

package handler

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/hanush21/anime-recommender/internal/logging"
	"github.com/hanush21/anime-recommender/internal/models"
	"github.com/hanush21/anime-recommender/internal/service"
)

// AdminMaintenanceHandler expone endpoints de mantenimiento.
type AdminMaintenanceHandler struct {
	svc *service.AdminMaintenanceService
	rec *service.RecommendService
}

// NewAdminMaintenanceHandler crea el handler.
func NewAdminMaintenanceHandler(svc *service.AdminMaintenanceService, rec *service.RecommendService) *AdminMaintenanceHandler {
	return &AdminMaintenanceHandler{svc: svc, rec: rec}
}

// @Summary Reconstruir el motor de recomendación
// @Description Vuelve a cargar ratings, catálogo y caché de vecinos y publica el motor nuevo.
// @Tags admin-maintenance
// @Security BearerAuth
// @Produce json
// @Param minp query int false "min_periods (default el configurado)"
// @Success 200 {object} models.ReloadResult
// @Failure 503 {object} errorBody
// @Router /admin/recommender/reload [post]
func (h *AdminMaintenanceHandler) PostReload(w http.ResponseWriter, r *http.Request) {
	minp, err := queryInt(r, "minp", h.rec.DefaultMinPeriods())
	if err != nil {
		writeError(w, r, err)
		return
	}

	status, err := h.rec.Reload(r.Context(), minp)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, models.ReloadResult{Status: status})
}

// @Summary Precalcular vecinos
// @Description Escribe la generación (topK, minPeriods, popularityFloor); si ya existe y overwrite es false no hace nada.
// @Tags admin-maintenance
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param body body models.RebuildNeighborsRequest true "Parámetros de reconstrucción"
// @Success 200 {object} models.RebuildNeighborsResult
// @Failure 400 {object} errorBody
// @Failure 409 {object} errorBody
// @Router /admin/neighbors/rebuild [post]
func (h *AdminMaintenanceHandler) PostRebuild(w http.ResponseWriter, r *http.Request) {
	var req models.RebuildNeighborsRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	res, err := h.rebuild(r, req, nil)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *AdminMaintenanceHandler) rebuild(r *http.Request, req models.RebuildNeighborsRequest, progress func(done, total int)) (*models.RebuildNeighborsResult, error) {
	res, err := h.svc.RebuildNeighbors(r.Context(), req, progress)
	if err != nil {
		return nil, err
	}
	if req.Reload {
		status, err := h.rec.Reload(r.Context(), req.MinPeriods)
		if err != nil {
			return nil, err
		}
		res.Engine = &status
	}
	return res, nil
}

// upgrader global del WebSocket de admin
var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// @Summary Precalcular vecinos con progreso en tiempo real (WebSocket)
// @Tags admin-maintenance
// @Security BearerAuth
// @Param minPeriods query int false "min_periods"
// @Param topK query int false "vecinos por anime"
// @Param popularityFloor query int false "mínimo de ratings por anime"
// @Param overwrite query bool false "reescribir si existe"
// @Param reload query bool false "recargar el motor al terminar"
// @Success 101
// @Router /admin/ws/neighbors/rebuild [get]
func (h *AdminMaintenanceHandler) RebuildWS(w http.ResponseWriter, r *http.Request) {
	req, err := rebuildRequestFromQuery(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logging.Warn().Err(err).Msg("[ws] no se pudo abrir WebSocket")
		return
	}
	defer conn.Close()

	send := func(msg any) {
		_ = conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
		if err := conn.WriteJSON(msg); err != nil {
			logging.Debug().Err(err).Msg("[ws] error enviando mensaje")
		}
	}

	send(models.RebuildProgress{Type: "start", Msg: "Conexión WS abierta, iniciando precálculo…"})

	res, err := h.rebuild(r, req, func(done, total int) {
		send(models.RebuildProgress{
			Type:  "progress",
			Done:  done,
			Total: total,
			Msg:   fmt.Sprintf("%d/%d animes procesados", done, total),
		})
	})
	if err != nil {
		send(models.RebuildProgress{Type: "error", Msg: err.Error()})
		return
	}

	send(map[string]any{
		"type":   "done",
		"result": res,
	})
	_ = conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second))
}

func rebuildRequestFromQuery(r *http.Request) (models.RebuildNeighborsRequest, error) {
	var req models.RebuildNeighborsRequest
	var err error
	if req.MinPeriods, err = queryInt(r, "minPeriods", 0); err != nil {
		return req, err
	}
	if req.TopK, err = queryInt(r, "topK", 0); err != nil {
		return req, err
	}
	if r.URL.Query().Has("popularityFloor") {
		floor, err := queryInt(r, "popularityFloor", 0)
		if err != nil {
			return req, err
		}
		req.PopularityFloor = &floor
	}
	if req.Workers, err = queryInt(r, "workers", 0); err != nil {
		return req, err
	}
	req.Overwrite, _ = strconv.ParseBool(r.URL.Query().Get("overwrite"))
	req.Reload, _ = strconv.ParseBool(r.URL.Query().Get("reload"))

	if err := getValidator().Struct(&req); err != nil {
		return req, fmt.Errorf("%w: %v", models.ErrInvalidParameter, err)
	}
	return req, nil
}

// Helper para montar rutas en main.go
func MountAdminMaintenanceRoutes(r chi.Router, h *AdminMaintenanceHandler, jwtSecret string) {
	r.Group(func(r chi.Router) {
		r.Use(JWTAuth(jwtSecret))
		r.Use(AdminOnly())

		r.Post("/admin/recommender/reload", h.PostReload)
		r.Post("/admin/neighbors/rebuild", h.PostRebuild)
		r.Get("/admin/ws/neighbors/rebuild", h.RebuildWS)
	})
}

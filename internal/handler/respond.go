package handler

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strconv"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"

	"github.com/hanush21/anime-recommender/internal/logging"
	"github.com/hanush21/anime-recommender/internal/models"
	"github.com/hanush21/anime-recommender/internal/service"
)

// límite de body para los POST
const maxBodyBytes = 1 << 20

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func getValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		// errores con el nombre json del campo
		validate.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
	})
	return validate
}

// Utilidad pequeña para respuestas JSON.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Debug().Err(err).Msg("[http] error escribiendo respuesta")
	}
}

type errorBody struct {
	Error string `json:"error"`
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorBody{Error: msg})
}

// statusFor NotFound→404, NotReady→503, InvalidParameter→400, resto→500.
func statusFor(err error) int {
	switch {
	case errors.Is(err, models.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, models.ErrInvalidParameter):
		return http.StatusBadRequest
	case errors.Is(err, models.ErrNotReady):
		return http.StatusServiceUnavailable
	case errors.Is(err, service.ErrRebuildRunning):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	switch {
	case status >= 500:
		logging.Error().Err(err).Str("path", r.URL.Path).Int("status", status).Msg("[http] error")
	case status != http.StatusNotFound:
		logging.Warn().Err(err).Str("path", r.URL.Path).Int("status", status).Msg("[http] request rechazado")
	}
	writeMessage(w, status, err.Error())
}

// decodeBody lee el JSON y lo valida. Body vacío deja v en cero.
func decodeBody(r *http.Request, v any) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		return fmt.Errorf("%w: body: %v", models.ErrInvalidParameter, err)
	}
	if len(strings.TrimSpace(string(body))) > 0 {
		if err := json.Unmarshal(body, v); err != nil {
			return fmt.Errorf("%w: body inválido: %v", models.ErrInvalidParameter, err)
		}
	}
	if err := getValidator().Struct(v); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return fmt.Errorf("%w: %s no cumple %s=%s", models.ErrInvalidParameter, fe.Field(), fe.Tag(), fe.Param())
		}
		return fmt.Errorf("%w: %v", models.ErrInvalidParameter, err)
	}
	return nil
}

// queryInt parámetro entero opcional; mal formado es InvalidParameter.
func queryInt(r *http.Request, name string, def int) (int, error) {
	v := strings.TrimSpace(r.URL.Query().Get(name))
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%w: %s=%q no es entero", models.ErrInvalidParameter, name, v)
	}
	return n, nil
}

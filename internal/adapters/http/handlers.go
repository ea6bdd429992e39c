package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"reflect"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/sp3dr4/hexlink/internal/application"
	"github.com/sp3dr4/hexlink/internal/domain"
	"github.com/sp3dr4/hexlink/internal/pkg/logging"
)

const readinessTimeout = 5 * time.Second

type Handlers struct {
	shorten  *application.ShortenService
	resolve  *application.ResolveService
	repo     domain.URLRepository
	cache    domain.Cache
	validate *validator.Validate
}

func NewHandlers(
	shorten *application.ShortenService,
	resolve *application.ResolveService,
	repo domain.URLRepository,
	cache domain.Cache,
) *Handlers {
	validate := validator.New()
	validate.RegisterTagNameFunc(jsonFieldName)

	return &Handlers{
		shorten:  shorten,
		resolve:  resolve,
		repo:     repo,
		cache:    cache,
		validate: validate,
	}
}

// HandleHealth handles the health check endpoint.
//
//	@Summary		Health check endpoint
//	@Description	Check if the service is running
//	@Tags			health
//	@Produce		plain
//	@Success		200	{string}	string	"OK"
//	@Router			/health [get]
func (h *Handlers) HandleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusOK)
	_, _ = fmt.Fprintf(w, "OK")
}

// HandleReady handles the readiness check endpoint. The store must be
// reachable; a failing cache only marks the response as degraded.
//
//	@Summary		Readiness check endpoint
//	@Description	Check if the service is ready to serve requests (store connectivity required, cache reported)
//	@Tags			health
//	@Produce		json
//	@Success		200	{object}	ReadyResponse	"Service is ready"
//	@Failure		503	{object}	ErrorResponse	"Service is not ready"
//	@Router			/ready [get]
func (h *Handlers) HandleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
	defer cancel()

	logger := logging.FromContext(ctx)

	if err := h.repo.HealthCheck(ctx); err != nil {
		logger.Error("Readiness check failed", "error", err)
		respondWithError(w, http.StatusServiceUnavailable, "Service not ready: store unavailable")
		return
	}

	cacheStatus := "ok"
	if err := h.cache.Ping(ctx); err != nil {
		logger.Warn("Cache unreachable, serving from store only", "error", err)
		cacheStatus = "degraded"
	}

	respondWithJSON(w, http.StatusOK, ReadyResponse{
		Status:    "ready",
		Store:     "ok",
		Cache:     cacheStatus,
		Timestamp: time.Now().Format(time.RFC3339),
	})
}

// HandleShorten handles the URL shortening endpoint.
//
//	@Summary		Create a short URL
//	@Description	Return the alias for a URL, creating one the first time the URL is seen
//	@Tags			urls
//	@Accept			json
//	@Produce		json
//	@Param			request	body		application.ShortenRequest		true	"URL to shorten"
//	@Success		200		{object}	application.ShortenResponse		"Short alias for the URL"
//	@Failure		400		{object}	ValidationErrorResponse			"Invalid request or validation error"
//	@Failure		500		{object}	ErrorResponse					"Alias could not be issued"
//	@Router			/api/shorten [post]
func (h *Handlers) HandleShorten(w http.ResponseWriter, r *http.Request) {
	logger := logging.FromContext(r.Context())

	var req application.ShortenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("Failed to decode request", "error", err)
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := h.validate.Struct(req); err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) {
			handleValidationError(w, validationErrors)
			return
		}
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	res, err := h.shorten.Shorten(r.Context(), req.OriginalURL)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrMissingInput):
			respondWithError(w, http.StatusBadRequest, "Original URL is required")
		case errors.Is(err, domain.ErrGenerationExhausted):
			logger.Error("Failed to issue short alias", "error", err)
			respondWithError(w, http.StatusInternalServerError, "Could not allocate a short alias")
		default:
			logger.Error("Failed to shorten URL", "error", err)
			respondWithError(w, http.StatusInternalServerError, "Failed to shorten URL")
		}
		return
	}

	respondWithJSON(w, http.StatusOK, application.ShortenResponse{ShortURL: res.ShortAlias})
}

// HandleRedirect handles the redirect endpoint.
//
//	@Summary		Redirect to original URL
//	@Description	Redirect to the original URL using the short alias
//	@Tags			urls
//	@Param			shortAlias	path	string	true	"Short alias"
//	@Success		307			"Redirect to original URL"
//	@Failure		400			{object}	ErrorResponse	"Short alias missing"
//	@Failure		404			{object}	ErrorResponse	"Short URL not found"
//	@Router			/{shortAlias} [get]
func (h *Handlers) HandleRedirect(w http.ResponseWriter, r *http.Request) {
	shortAlias := chi.URLParam(r, "shortAlias")
	logger := logging.FromContext(r.Context())

	res, err := h.resolve.Resolve(r.Context(), shortAlias)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrMissingInput):
			respondWithError(w, http.StatusBadRequest, "Short alias is required")
		case errors.Is(err, domain.ErrNotFound):
			respondWithError(w, http.StatusNotFound, "Short URL not found")
		default:
			logger.Error("Failed to resolve short alias", "short_alias", shortAlias, "error", err)
			respondWithError(w, http.StatusInternalServerError, "Failed to resolve short URL")
		}
		return
	}

	logger.Info("Redirecting", "short_alias", shortAlias, "original_url", res.OriginalURL, "source", res.Source)

	// Location carries the stored URL verbatim.
	w.Header().Set("Location", res.OriginalURL)
	w.WriteHeader(http.StatusTemporaryRedirect)
}

// HandleMissingAlias answers requests to the bare root, which carry no alias.
func (h *Handlers) HandleMissingAlias(w http.ResponseWriter, _ *http.Request) {
	respondWithError(w, http.StatusBadRequest, "Short alias is required")
}

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error     string `json:"error" example:"Short URL not found"`
	Timestamp string `json:"timestamp" example:"2024-01-31T12:00:00Z"`
}

// ValidationErrorResponse represents a validation error response.
type ValidationErrorResponse struct {
	Error     string            `json:"error" example:"Validation failed"`
	Details   map[string]string `json:"details"`
	Timestamp string            `json:"timestamp" example:"2024-01-31T12:00:00Z"`
}

type ReadyResponse struct {
	Status    string `json:"status" example:"ready"`
	Store     string `json:"store" example:"ok"`
	Cache     string `json:"cache" example:"ok"`
	Timestamp string `json:"timestamp" example:"2024-01-31T12:00:00Z"`
}

func respondWithJSON(w http.ResponseWriter, code int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

func respondWithError(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, ErrorResponse{
		Error:     message,
		Timestamp: time.Now().Format(time.RFC3339),
	})
}

func handleValidationError(w http.ResponseWriter, validationErrors validator.ValidationErrors) {
	details := make(map[string]string, len(validationErrors))
	for _, e := range validationErrors {
		switch e.Tag() {
		case "required":
			details[e.Field()] = fmt.Sprintf("%s is required", e.Field())
		default:
			details[e.Field()] = fmt.Sprintf("%s is invalid", e.Field())
		}
	}

	respondWithJSON(w, http.StatusBadRequest, ValidationErrorResponse{
		Error:     "Validation failed",
		Details:   details,
		Timestamp: time.Now().Format(time.RFC3339),
	})
}

// jsonFieldName makes validation errors report the JSON name of a field.
func jsonFieldName(field reflect.StructField) string {
	name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
	if name == "" || name == "-" {
		return field.Name
	}
	return name
}

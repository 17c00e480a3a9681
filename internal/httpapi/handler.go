package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/unkn0wn-root/cachefront"
	"github.com/unkn0wn-root/cachefront/internal/product"
	"github.com/unkn0wn-root/cachefront/repository"
)

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type Handler struct {
	svc     *product.Service
	repo    *repository.Repository[product.Product]
	logger  *zap.SugaredLogger
	metrics http.Handler
}

func NewHandler(svc *product.Service, repo *repository.Repository[product.Product], reg *prometheus.Registry, logger *zap.SugaredLogger) *Handler {
	return &Handler{
		svc:     svc,
		repo:    repo,
		logger:  logger,
		metrics: promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}),
	}
}

func (h *Handler) Routes() *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(h.requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(15 * time.Second))
	r.Use(middleware.Heartbeat("/ping"))

	r.Get("/healthz", h.Healthz)
	r.Handle("/metrics", h.metrics)

	// cached service
	r.Route("/products", func(r chi.Router) {
		r.Get("/{id}", h.GetProduct)
		r.Put("/{id}", h.SaveProduct)
		r.Delete("/{id}", h.RemoveProduct)
	})

	// repository
	r.Route("/repo/products", func(r chi.Router) {
		r.Get("/", h.ListRepoProducts)
		r.Get("/{id}", h.GetRepoProduct)
		r.Put("/{id}", h.SaveRepoProduct)
		r.Delete("/{id}", h.DeleteRepoProduct)
	})

	return r
}

func (h *Handler) Healthz(w http.ResponseWriter, _ *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) GetProduct(w http.ResponseWriter, r *http.Request) {
	p, err := h.svc.GetProduct(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeCacheError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, p)
}

func (h *Handler) SaveProduct(w http.ResponseWriter, r *http.Request) {
	p, ok := h.decodeProduct(w, r)
	if !ok {
		return
	}
	saved, err := h.svc.Save(r.Context(), p)
	if err != nil {
		h.writeCacheError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, saved)
}

func (h *Handler) RemoveProduct(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Remove(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.writeCacheError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) ListRepoProducts(w http.ResponseWriter, r *http.Request) {
	all, err := h.repo.FindAll(r.Context())
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, "REPOSITORY_ERROR", err.Error())
		return
	}
	h.writeJSON(w, http.StatusOK, all)
}

func (h *Handler) GetRepoProduct(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	p, ok, err := h.repo.FindByID(r.Context(), id)
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, "REPOSITORY_ERROR", err.Error())
		return
	}
	if !ok {
		h.writeError(w, http.StatusNotFound, "NOT_FOUND", "product "+id+" not found")
		return
	}
	h.writeJSON(w, http.StatusOK, p)
}

func (h *Handler) SaveRepoProduct(w http.ResponseWriter, r *http.Request) {
	p, ok := h.decodeProduct(w, r)
	if !ok {
		return
	}
	if err := h.repo.Save(r.Context(), p); err != nil {
		h.writeError(w, http.StatusInternalServerError, "REPOSITORY_ERROR", err.Error())
		return
	}
	h.writeJSON(w, http.StatusOK, p)
}

func (h *Handler) DeleteRepoProduct(w http.ResponseWriter, r *http.Request) {
	if err := h.repo.DeleteByID(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.writeError(w, http.StatusInternalServerError, "REPOSITORY_ERROR", err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// decodeProduct reads the body; the path id wins over any id in the body.
func (h *Handler) decodeProduct(w http.ResponseWriter, r *http.Request) (product.Product, bool) {
	var p product.Product
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		h.writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error())
		return p, false
	}
	p.ID = chi.URLParam(r, "id")
	return p, true
}

func (h *Handler) writeCacheError(w http.ResponseWriter, err error) {
	var (
		ike *cachefront.InvalidKeyError
		le  *cachefront.LoadError
		se  *cachefront.StoreError
	)
	switch {
	case errors.As(err, &ike):
		h.writeError(w, http.StatusBadRequest, "INVALID_KEY", err.Error())
	case errors.As(err, &le):
		h.writeError(w, http.StatusBadGateway, "LOAD_ERROR", err.Error())
	case errors.As(err, &se):
		h.writeError(w, http.StatusServiceUnavailable, "STORE_ERROR", err.Error())
	default:
		h.writeError(w, http.StatusInternalServerError, "INTERNAL", err.Error())
	}
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Warnw("Failed to encode response", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, code, message string) {
	h.logger.Errorw("API error", "code", code, "message", message, "status", status)
	h.writeJSON(w, status, ErrorResponse{Code: code, Message: message})
}

func (h *Handler) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		defer func() {
			h.logger.Infow("HTTP request",
				"request_id", middleware.GetReqID(r.Context()),
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"size", ww.BytesWritten(),
				"duration", time.Since(start),
			)
		}()
		next.ServeHTTP(ww, r)
	})
}

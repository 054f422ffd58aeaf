package app

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	openapimiddleware "github.com/oapi-codegen/nethttp-middleware"

	"github.com/entregaops-platform/api/internal/audit"
	"github.com/entregaops-platform/api/internal/config"
	"github.com/entregaops-platform/api/internal/handlers"
	"github.com/entregaops-platform/api/internal/httpx"
	"github.com/entregaops-platform/api/internal/middleware"
	"github.com/entregaops-platform/api/internal/order"
)

func NewRouter(cfg config.Config, store order.Store, pool *pgxpool.Pool, logger *slog.Logger) (http.Handler, error) {
	if _, err := os.Stat(cfg.OpenAPISpecPath); err != nil {
		return nil, fmt.Errorf("openapi spec not found at %s: %w", cfg.OpenAPISpecPath, err)
	}

	loader := openapi3.NewLoader()
	doc, err := loader.LoadFromFile(cfg.OpenAPISpecPath)
	if err != nil {
		return nil, fmt.Errorf("load openapi spec: %w", err)
	}
	if err := doc.Validate(loader.Context); err != nil {
		return nil, fmt.Errorf("validate openapi spec: %w", err)
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.SecurityHeaders(cfg.Env))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSAllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "X-Request-Id"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(middleware.Logging(logger))
	r.Use(middleware.LimitBodyBytes(cfg.APIMaxBodyBytes,
		middleware.BodyLimitOverride{PathPrefix: "/imports", MaxBytes: cfg.ImportMaxBodyBytes},
	))

	api := chi.NewRouter()
	api.Use(openapimiddleware.OapiRequestValidatorWithOptions(doc, &openapimiddleware.Options{
		SilenceServersWarning: true,
		ErrorHandler: func(w http.ResponseWriter, message string, statusCode int) {
			requestID := w.Header().Get("X-Request-Id")
			httpx.WriteJSON(w, statusCode, httpx.ErrorEnvelope{
				Error:     httpx.ErrorBody{Code: "validation_error", Message: message},
				RequestID: requestID,
			})
		},
	}))

	auditLogger := audit.NewLogger(pool)
	h := handlers.NewServer(cfg, store, auditLogger, logger)

	importLimiter := middleware.NewIPRateLimiter(cfg.ImportRateLimit, time.Minute)

	api.Get("/health", h.GetHealth)
	api.Get("/order-types", h.GetOrderTypes)

	api.Get("/orders", h.GetOrders)
	api.Post("/orders", h.PostOrders)
	api.Post("/orders/bulk-delete", h.PostOrdersBulkDelete)
	api.Patch("/orders/{orderId}", withOrderID(h.PatchOrder))
	api.Delete("/orders/{orderId}", withOrderID(h.DeleteOrder))
	api.Post("/orders/{orderId}/confirm", withOrderID(h.ConfirmOrder))
	api.Post("/orders/{orderId}/archive", withOrderID(h.ArchiveOrder))
	api.Post("/orders/{orderId}/restore", withOrderID(h.RestoreOrder))

	api.Group(func(imports chi.Router) {
		imports.Use(importLimiter.Middleware("Too many import requests"))
		imports.Post("/imports/preview", h.PostImportsPreview)
		imports.Post("/imports/apply", h.PostImportsApply)
	})

	api.Get("/calendar/{year}/{month}", func(w http.ResponseWriter, r *http.Request) {
		year, errYear := strconv.Atoi(chi.URLParam(r, "year"))
		month, errMonth := strconv.Atoi(chi.URLParam(r, "month"))
		if errYear != nil || errMonth != nil {
			httpx.WriteError(w, r, http.StatusBadRequest, "validation_error", "year and month must be integers", nil)
			return
		}
		h.GetCalendar(w, r, year, month)
	})

	r.Mount("/api", api)
	return r, nil
}

func withOrderID(next func(http.ResponseWriter, *http.Request, uuid.UUID)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID, err := uuid.Parse(chi.URLParam(r, "orderId"))
		if err != nil {
			httpx.WriteError(w, r, http.StatusBadRequest, "validation_error", "orderId must be a UUID", nil)
			return
		}
		next(w, r, orderID)
	}
}

package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/entregaops-platform/api/internal/audit"
	"github.com/entregaops-platform/api/internal/config"
	"github.com/entregaops-platform/api/internal/httpx"
	"github.com/entregaops-platform/api/internal/order"
)

type Server struct {
	Config config.Config
	Store  order.Store
	Audit  *audit.Logger
	Logger *slog.Logger

	// now is swappable in tests; classification is relative to it.
	now func() time.Time
}

func NewServer(cfg config.Config, store order.Store, auditLogger *audit.Logger, logger *slog.Logger) *Server {
	return &Server{
		Config: cfg,
		Store:  store,
		Audit:  auditLogger,
		Logger: logger,
		now:    time.Now,
	}
}

func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	httpx.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fermingonzalezs/sistema-update-sub002/internal/compras"
	"github.com/fermingonzalezs/sistema-update-sub002/internal/importaciones"
	"github.com/fermingonzalezs/sistema-update-sub002/internal/masterdata/clientes"
	"github.com/fermingonzalezs/sistema-update-sub002/internal/masterdata/proveedores"
	"github.com/fermingonzalezs/sistema-update-sub002/internal/observability"
	"github.com/fermingonzalezs/sistema-update-sub002/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger              *slog.Logger
	Config              *Config
	ImportacionHandler  *importaciones.Handler
	ComprasHandler      *compras.Handler
	ProveedoresHandler  *proveedores.Handler
	ClientesHandler     *clientes.Handler
	JobHandler          *jobs.Handler
	Pool                *pgxpool.Pool
	Metrics             *observability.Metrics
}

// NewRouter constructs the chi.Router with application defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  params.Logger,
		Config:  params.Config,
		Metrics: params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Get("/healthz", func(w http.ResponseWriter, req *http.Request) {
		if params.Pool != nil {
			if err := params.Pool.Ping(req.Context()); err != nil {
				http.Error(w, "database unreachable", http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	r.Route("/api/v1", func(r chi.Router) {
		if params.ImportacionHandler != nil {
			params.ImportacionHandler.MountRoutes(r)
		}
		if params.ComprasHandler != nil {
			params.ComprasHandler.MountRoutes(r)
		}
		if params.ProveedoresHandler != nil {
			params.ProveedoresHandler.MountRoutes(r)
		}
		if params.ClientesHandler != nil {
			params.ClientesHandler.MountRoutes(r)
		}
	})

	if params.JobHandler != nil {
		r.Route("/jobs", func(r chi.Router) {
			params.JobHandler.MountRoutes(r)
		})
	}

	return r
}

package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/resinflow/resinflow/internal/auth"
	"github.com/resinflow/resinflow/internal/masterdata"
	"github.com/resinflow/resinflow/internal/observability"
	"github.com/resinflow/resinflow/internal/products"
	"github.com/resinflow/resinflow/internal/rawstock"
	"github.com/resinflow/resinflow/internal/staff"
	"github.com/resinflow/resinflow/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger            *slog.Logger
	Config            *Config
	AuthService       *auth.Service
	AuthHandler       *auth.Handler
	MasterDataHandler *masterdata.Handler
	RawStockHandler   *rawstock.Handler
	ProductsHandler   *products.Handler
	StaffHandler      *staff.Handler
	JobHandler        *jobs.Handler
	Metrics           *observability.Metrics
}

// NewRouter constructs the chi.Router.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  params.Logger,
		Config:  params.Config,
		Metrics: params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}
	if params.JobHandler != nil {
		r.Route("/jobs", params.JobHandler.MountRoutes)
	}

	r.Route("/auth", func(r chi.Router) {
		params.AuthHandler.MountRoutes(r, params.AuthService.RequireAuth)
	})

	r.Group(func(r chi.Router) {
		r.Use(params.AuthService.RequireAuth)

		r.Route("/colors", params.MasterDataHandler.MountColorRoutes)
		r.Route("/materials", params.MasterDataHandler.MountMaterialRoutes)
		r.Route("/raw-stock", params.RawStockHandler.MountRoutes)
		r.Route("/sap-products", params.ProductsHandler.MountSapRoutes)
		r.Route("/entry-products", params.ProductsHandler.MountEntryRoutes)
		r.Route("/staff", params.StaffHandler.MountRoutes)
	})

	return r
}

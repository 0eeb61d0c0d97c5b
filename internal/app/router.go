package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/Umair-28/logistics-management/internal/auth"
	"github.com/Umair-28/logistics-management/internal/contract"
	"github.com/Umair-28/logistics-management/internal/dashboard"
	"github.com/Umair-28/logistics-management/internal/dispatch"
	"github.com/Umair-28/logistics-management/internal/ewaybill"
	"github.com/Umair-28/logistics-management/internal/fleet"
	"github.com/Umair-28/logistics-management/internal/lorryreceipt"
	"github.com/Umair-28/logistics-management/internal/observability"
	"github.com/Umair-28/logistics-management/internal/pod"
	"github.com/Umair-28/logistics-management/internal/shared"
	"github.com/Umair-28/logistics-management/internal/tripsheet"
	"github.com/Umair-28/logistics-management/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger         *slog.Logger
	Config         *Config
	SessionManager *shared.SessionManager
	CSRFManager    *shared.CSRFManager

	AuthHandler         *auth.Handler
	DispatchHandler     *dispatch.Handler
	TripSheetHandler    *tripsheet.Handler
	LorryReceiptHandler *lorryreceipt.Handler
	PODHandler          *pod.Handler
	EwayBillHandler     *ewaybill.Handler
	ContractHandler     *contract.Handler
	FleetHandler        *fleet.Handler
	DashboardHandler    *dashboard.Handler
	JobHandler          *jobs.Handler
	Metrics             *observability.Metrics
}

// NewRouter constructs the chi.Router with application defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:         params.Logger,
		Config:         params.Config,
		SessionManager: params.SessionManager,
		CSRFManager:    params.CSRFManager,
		Metrics:        params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/auth", params.AuthHandler.MountRoutes)

	r.Group(func(r chi.Router) {
		r.Use(RequireAuth)
		params.DispatchHandler.MountRoutes(r)
		params.TripSheetHandler.MountRoutes(r)
		params.LorryReceiptHandler.MountRoutes(r)
		params.PODHandler.MountRoutes(r)
		params.EwayBillHandler.MountRoutes(r)
		params.ContractHandler.MountRoutes(r)
		params.FleetHandler.MountRoutes(r)
		params.DashboardHandler.MountRoutes(r)
		if params.JobHandler != nil {
			r.Route("/jobs", params.JobHandler.MountRoutes)
		}
	})

	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	return r
}

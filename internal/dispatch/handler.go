package dispatch

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/Umair-28/logistics-management/internal/docgraph"
	"github.com/Umair-28/logistics-management/internal/platform/httpx"
	"github.com/Umair-28/logistics-management/internal/shared"
)

// Handler manages route dispatch endpoints.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	activity *shared.ActivityLogger
	validate *validator.Validate
}

// NewHandler builds a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, activity *shared.ActivityLogger) *Handler {
	return &Handler{
		logger:   logger,
		service:  service,
		activity: activity,
		validate: validator.New(),
	}
}

// MountRoutes registers dispatch routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/dispatches", h.list)
	r.Post("/dispatches", h.create)
	r.Get("/dispatches/{id}", h.show)
	r.Patch("/dispatches/{id}", h.update)
	r.Delete("/dispatches/{id}", h.delete)
	r.Post("/dispatches/{id}/start", h.start)
	r.Post("/dispatches/{id}/complete", h.complete)
	r.Post("/dispatches/{id}/cancel", h.cancel)
	r.Post("/dispatches/batch/start", h.batchStart)
	r.Post("/dispatches/batch/complete", h.batchComplete)
	r.Post("/dispatches/batch/cancel", h.batchCancel)
	r.Get("/dispatches/{id}/activity", h.activityFeed)
}

// ListDispatchesResponse is the list endpoint payload.
type ListDispatchesResponse struct {
	Dispatches []RouteDispatch   `json:"dispatches"`
	Pagination shared.Pagination `json:"pagination"`
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	req := ListDispatchesRequest{}

	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	if page < 1 {
		page = 1
	}
	limit := 20
	req.Limit = limit
	req.Offset = (page - 1) * limit

	if status := r.URL.Query().Get("status"); status != "" {
		s := Status(status)
		if !s.IsValid() {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "unknown status "+status)
			return
		}
		req.Status = &s
	}
	if vehicle := r.URL.Query().Get("vehicle_id"); vehicle != "" {
		if id, err := strconv.ParseInt(vehicle, 10, 64); err == nil {
			req.VehicleID = &id
		}
	}
	if driver := r.URL.Query().Get("driver_id"); driver != "" {
		if id, err := strconv.ParseInt(driver, 10, 64); err == nil {
			req.DriverID = &id
		}
	}
	if from := r.URL.Query().Get("date_from"); from != "" {
		if t, err := time.Parse("2006-01-02", from); err == nil {
			req.DateFrom = &t
		}
	}
	if to := r.URL.Query().Get("date_to"); to != "" {
		if t, err := time.Parse("2006-01-02", to); err == nil {
			req.DateTo = &t
		}
	}

	dispatches, total, err := h.service.List(r.Context(), req)
	if err != nil {
		h.logger.Error("list dispatches", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, ListDispatchesResponse{
		Dispatches: dispatches,
		Pagination: shared.NewPagination(page, limit, total),
	})
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req CreateDispatchRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	created, err := h.service.Create(r.Context(), req, shared.ActorFromContext(r.Context()))
	if err != nil {
		h.logger.Error("create dispatch", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, created)
}

func (h *Handler) show(w http.ResponseWriter, r *http.Request) {
	id, ok := h.parseID(w, r)
	if !ok {
		return
	}
	d, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, d)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, ok := h.parseID(w, r)
	if !ok {
		return
	}
	var req UpdateDispatchRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	updated, err := h.service.Update(r.Context(), id, req)
	if err != nil {
		if errors.Is(err, ErrCannotEdit) {
			httpx.Problem(w, http.StatusConflict, "Cannot Edit", err.Error())
			return
		}
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, updated)
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	id, ok := h.parseID(w, r)
	if !ok {
		return
	}
	if err := h.service.Delete(r.Context(), id); err != nil {
		h.logger.Error("delete dispatch", slog.Int64("id", id), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) start(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.service.Start)
}

func (h *Handler) complete(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.service.Complete)
}

func (h *Handler) cancel(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.service.Cancel)
}

func (h *Handler) transition(w http.ResponseWriter, r *http.Request, op func(ctx context.Context, id int64) (*RouteDispatch, error)) {
	id, ok := h.parseID(w, r)
	if !ok {
		return
	}
	d, err := op(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, d)
}

func (h *Handler) batchStart(w http.ResponseWriter, r *http.Request) {
	h.batch(w, r, h.service.BatchStart)
}

func (h *Handler) batchComplete(w http.ResponseWriter, r *http.Request) {
	h.batch(w, r, h.service.BatchComplete)
}

func (h *Handler) batchCancel(w http.ResponseWriter, r *http.Request) {
	h.batch(w, r, h.service.BatchCancel)
}

func (h *Handler) batch(w http.ResponseWriter, r *http.Request, op func(ctx context.Context, ids []int64) []BatchTransitionResult) {
	var req BatchTransitionRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"results": op(r.Context(), req.IDs)})
}

func (h *Handler) activityFeed(w http.ResponseWriter, r *http.Request) {
	id, ok := h.parseID(w, r)
	if !ok {
		return
	}
	events, err := h.activity.History(r.Context(), docgraph.EntityDispatch, id, 50)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"events": events})
}

func (h *Handler) parseID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid id")
		return 0, false
	}
	return id, true
}

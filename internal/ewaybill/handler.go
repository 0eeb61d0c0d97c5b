package ewaybill

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/Umair-28/logistics-management/internal/docgraph"
	"github.com/Umair-28/logistics-management/internal/platform/httpx"
	"github.com/Umair-28/logistics-management/internal/shared"
)

// Handler manages e-way bill endpoints.
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

// MountRoutes registers e-way bill routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/eway-bills", h.list)
	r.Post("/eway-bills", h.create)
	r.Get("/eway-bills/{id}", h.show)
	r.Patch("/eway-bills/{id}", h.update)
	r.Delete("/eway-bills/{id}", h.delete)
	r.Post("/eway-bills/{id}/activate", h.activate)
	r.Post("/eway-bills/{id}/expire", h.expire)
	r.Post("/eway-bills/{id}/cancel", h.cancel)
	r.Get("/eway-bills/{id}/activity", h.activityFeed)
}

// ListEwayBillsResponse is the list endpoint payload.
type ListEwayBillsResponse struct {
	EwayBills  []EwayBill        `json:"eway_bills"`
	Pagination shared.Pagination `json:"pagination"`
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	req := ListEwayBillsRequest{}

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
	if dispatch := r.URL.Query().Get("dispatch_id"); dispatch != "" {
		if id, err := strconv.ParseInt(dispatch, 10, 64); err == nil {
			req.DispatchID = &id
		}
	}

	bills, total, err := h.service.List(r.Context(), req)
	if err != nil {
		h.logger.Error("list eway bills", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, ListEwayBillsResponse{
		EwayBills:  bills,
		Pagination: shared.NewPagination(page, limit, total),
	})
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req CreateEwayBillRequest
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
		h.logger.Error("create eway bill", slog.Any("error", err))
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
	b, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, b)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, ok := h.parseID(w, r)
	if !ok {
		return
	}
	var req UpdateEwayBillRequest
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
		h.logger.Error("delete eway bill", slog.Int64("id", id), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) activate(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.service.Activate)
}

func (h *Handler) expire(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.service.MarkExpired)
}

func (h *Handler) cancel(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.service.Cancel)
}

func (h *Handler) transition(w http.ResponseWriter, r *http.Request, op func(ctx context.Context, id int64) (*EwayBill, error)) {
	id, ok := h.parseID(w, r)
	if !ok {
		return
	}
	b, err := op(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, b)
}

func (h *Handler) activityFeed(w http.ResponseWriter, r *http.Request) {
	id, ok := h.parseID(w, r)
	if !ok {
		return
	}
	events, err := h.activity.History(r.Context(), docgraph.EntityEwayBill, id, 50)
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

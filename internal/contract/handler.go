package contract

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/Umair-28/logistics-management/internal/platform/httpx"
	"github.com/Umair-28/logistics-management/internal/shared"
)

// Handler manages contract endpoints.
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

// MountRoutes registers contract routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/contracts", h.list)
	r.Post("/contracts", h.create)
	r.Get("/contracts/{id}", h.show)
	r.Patch("/contracts/{id}", h.update)
	r.Delete("/contracts/{id}", h.delete)
	r.Post("/contracts/{id}/activate", h.activate)
	r.Post("/contracts/{id}/expire", h.expire)
	r.Post("/contracts/{id}/terminate", h.terminate)
	r.Get("/contracts/{id}/activity", h.activityFeed)
}

// ListContractsResponse is the list endpoint payload.
type ListContractsResponse struct {
	Contracts  []Contract        `json:"contracts"`
	Pagination shared.Pagination `json:"pagination"`
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	req := ListContractsRequest{}

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
	if partner := r.URL.Query().Get("partner_id"); partner != "" {
		if id, err := strconv.ParseInt(partner, 10, 64); err == nil {
			req.PartnerID = &id
		}
	}
	if ct := r.URL.Query().Get("contract_type"); ct != "" {
		t := Type(ct)
		if !t.IsValid() {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "unknown contract type "+ct)
			return
		}
		req.Type = &t
	}

	contracts, total, err := h.service.List(r.Context(), req)
	if err != nil {
		h.logger.Error("list contracts", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, ListContractsResponse{
		Contracts:  contracts,
		Pagination: shared.NewPagination(page, limit, total),
	})
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req CreateContractRequest
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
		h.logger.Error("create contract", slog.Any("error", err))
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
	c, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, c)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, ok := h.parseID(w, r)
	if !ok {
		return
	}
	var req UpdateContractRequest
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
		h.logger.Error("delete contract", slog.Int64("id", id), slog.Any("error", err))
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

func (h *Handler) terminate(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.service.Terminate)
}

func (h *Handler) transition(w http.ResponseWriter, r *http.Request, op func(ctx context.Context, id int64) (*Contract, error)) {
	id, ok := h.parseID(w, r)
	if !ok {
		return
	}
	c, err := op(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, c)
}

func (h *Handler) activityFeed(w http.ResponseWriter, r *http.Request) {
	id, ok := h.parseID(w, r)
	if !ok {
		return
	}
	events, err := h.activity.History(r.Context(), shared.DocTypeContract, id, 50)
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

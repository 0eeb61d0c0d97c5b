package lorryreceipt

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

// Handler manages lorry receipt endpoints.
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

// MountRoutes registers lorry receipt routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/lorry-receipts", h.list)
	r.Post("/lorry-receipts", h.create)
	r.Get("/lorry-receipts/{id}", h.show)
	r.Patch("/lorry-receipts/{id}", h.update)
	r.Delete("/lorry-receipts/{id}", h.delete)
	r.Post("/lorry-receipts/{id}/dispatch", h.dispatch)
	r.Post("/lorry-receipts/{id}/transit", h.markInTransit)
	r.Post("/lorry-receipts/{id}/deliver", h.deliver)
	r.Post("/lorry-receipts/{id}/cancel", h.cancel)
	r.Post("/lorry-receipts/batch/dispatch", h.batchDispatch)
	r.Post("/lorry-receipts/batch/deliver", h.batchDeliver)
	r.Get("/lorry-receipts/{id}/activity", h.activityFeed)
}

// ListLorryReceiptsResponse is the list endpoint payload.
type ListLorryReceiptsResponse struct {
	LorryReceipts []LorryReceipt    `json:"lorry_receipts"`
	Pagination    shared.Pagination `json:"pagination"`
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	req := ListLorryReceiptsRequest{}

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

	receipts, total, err := h.service.List(r.Context(), req)
	if err != nil {
		h.logger.Error("list lorry receipts", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, ListLorryReceiptsResponse{
		LorryReceipts: receipts,
		Pagination:    shared.NewPagination(page, limit, total),
	})
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req CreateLorryReceiptRequest
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
		if errors.Is(err, ErrDuplicateLRNumber) {
			httpx.Problem(w, http.StatusConflict, "Duplicate LR Number", err.Error())
			return
		}
		h.logger.Error("create lorry receipt", slog.Any("error", err))
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
	lr, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, lr)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, ok := h.parseID(w, r)
	if !ok {
		return
	}
	var req UpdateLorryReceiptRequest
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
		h.logger.Error("delete lorry receipt", slog.Int64("id", id), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) dispatch(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.service.Dispatch)
}

func (h *Handler) markInTransit(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.service.MarkInTransit)
}

func (h *Handler) deliver(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.service.Deliver)
}

func (h *Handler) cancel(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.service.Cancel)
}

func (h *Handler) transition(w http.ResponseWriter, r *http.Request, op func(ctx context.Context, id int64) (*LorryReceipt, error)) {
	id, ok := h.parseID(w, r)
	if !ok {
		return
	}
	lr, err := op(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, lr)
}

func (h *Handler) batchDispatch(w http.ResponseWriter, r *http.Request) {
	h.batch(w, r, h.service.BatchDispatch)
}

func (h *Handler) batchDeliver(w http.ResponseWriter, r *http.Request) {
	h.batch(w, r, h.service.BatchDeliver)
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
	events, err := h.activity.History(r.Context(), docgraph.EntityLorryReceipt, id, 50)
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

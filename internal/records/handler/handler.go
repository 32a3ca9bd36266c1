// Package handler exposes verification records to administrators.
package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"docverify/internal/records/models"
	"docverify/internal/verification"
	dErrors "docverify/pkg/domain-errors"
	"docverify/pkg/platform/httputil"
	"docverify/pkg/platform/sentinel"
	"docverify/pkg/requestcontext"
)

// Reader is the read side of the record store.
type Reader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Record, error)
	List(ctx context.Context, filter models.ListFilter) ([]*models.Record, error)
}

// Handler serves the admin record endpoints.
type Handler struct {
	records Reader
	logger  *slog.Logger
}

func New(records Reader, logger *slog.Logger) *Handler {
	return &Handler{records: records, logger: logger}
}

// Register mounts the admin routes. Callers wrap r with the admin middleware.
func (h *Handler) Register(r chi.Router) {
	r.Get("/admin/verifications", h.HandleList)
	r.Get("/admin/verifications/{id}", h.HandleGet)
}

// ListResponse is the body of the list endpoint.
type ListResponse struct {
	Records []*models.Record `json:"records"`
	Count   int              `json:"count"`
}

// HandleList lists records filtered by ?status=, ?user_type= and ?limit=.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	filter, err := parseFilter(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	records, err := h.records.List(ctx, filter)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to list verification records",
			"request_id", requestcontext.RequestID(ctx),
			"admin", requestcontext.AdminSubject(ctx),
			"error", err,
		)
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list records"))
		return
	}

	httputil.WriteJSON(w, http.StatusOK, ListResponse{Records: records, Count: len(records)})
}

// HandleGet returns one record by ID.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid verification id"))
		return
	}

	record, err := h.records.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			httputil.WriteError(w, dErrors.New(dErrors.CodeNotFound, "verification not found"))
			return
		}
		h.logger.ErrorContext(ctx, "failed to load verification record",
			"request_id", requestcontext.RequestID(ctx),
			"id", id,
			"error", err,
		)
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load record"))
		return
	}

	httputil.WriteJSON(w, http.StatusOK, record)
}

func parseFilter(r *http.Request) (models.ListFilter, error) {
	q := r.URL.Query()
	var filter models.ListFilter

	for _, raw := range q["status"] {
		for _, s := range strings.Split(raw, ",") {
			status := models.Status(strings.TrimSpace(s))
			if status == "" {
				continue
			}
			if !status.IsValid() {
				return filter, dErrors.New(dErrors.CodeInvalidInput, "unknown status: "+string(status))
			}
			filter.Statuses = append(filter.Statuses, status)
		}
	}

	if category := q.Get("user_type"); category != "" {
		if !verification.Category(category).IsValid() {
			return filter, dErrors.New(dErrors.CodeInvalidInput, "user_type must be student or employee")
		}
		filter.Category = category
	}

	if raw := q.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			return filter, dErrors.New(dErrors.CodeInvalidInput, "limit must be a non-negative integer")
		}
		filter.Limit = limit
	}
	return filter, nil
}

package handler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"docverify/internal/verification"
	dErrors "docverify/pkg/domain-errors"
	"docverify/pkg/platform/httputil"
	"docverify/pkg/requestcontext"
)

// multipartMemory is how much of a multipart body is kept in memory before spilling to disk.
const multipartMemory = 8 << 20

// Service runs a verification and always returns a verdict.
type Service interface {
	Verify(ctx context.Context, req verification.Request) verification.Verdict
}

// Handler serves the public verification endpoint.
type Handler struct {
	service        Service
	logger         *slog.Logger
	maxUploadBytes int64
}

// New creates a verification Handler.
func New(service Service, logger *slog.Logger, maxUploadBytes int64) *Handler {
	return &Handler{
		service:        service,
		logger:         logger,
		maxUploadBytes: maxUploadBytes,
	}
}

// Register mounts the verification routes.
func (h *Handler) Register(r chi.Router) {
	r.Post("/verify", h.HandleVerify)
}

// HandleVerify parses a multipart submission and runs it through the pipeline.
func (h *Handler) HandleVerify(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, err := h.parseRequest(w, r)
	if err != nil {
		h.logger.WarnContext(ctx, "invalid verification request",
			"request_id", requestID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	verdict := h.service.Verify(ctx, req)
	httputil.WriteJSON(w, StatusCode(verdict), toResponse(verdict))
}

func (h *Handler) parseRequest(w http.ResponseWriter, r *http.Request) (verification.Request, error) {
	if h.maxUploadBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
	}
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return verification.Request{}, dErrors.New(dErrors.CodePayloadTooLarge,
				fmt.Sprintf("upload exceeds %d bytes", tooLarge.Limit))
		}
		return verification.Request{}, dErrors.Wrap(err, dErrors.CodeBadRequest, "expected multipart/form-data body")
	}
	defer func() {
		_ = r.MultipartForm.RemoveAll()
	}()

	req := verification.Request{
		Category:     verification.Category(r.PostFormValue("user_type")),
		Name:         r.PostFormValue("name"),
		Email:        r.PostFormValue("email"),
		Contact:      r.PostFormValue("contact"),
		CollegeName:  r.PostFormValue("college_name"),
		CollegeID:    r.PostFormValue("college_id"),
		GovernmentID: r.PostFormValue("government_id"),
		Documents:    make(map[verification.DocumentKind]verification.Upload, len(verification.DocumentKinds)),
	}

	for _, kind := range verification.DocumentKinds {
		upload, ok, err := readUpload(r, kind)
		if err != nil {
			return verification.Request{}, err
		}
		if ok {
			req.Documents[kind] = upload
		}
	}
	return req, nil
}

func readUpload(r *http.Request, kind verification.DocumentKind) (verification.Upload, bool, error) {
	file, header, err := r.FormFile(string(kind))
	if errors.Is(err, http.ErrMissingFile) {
		return verification.Upload{}, false, nil
	}
	if err != nil {
		return verification.Upload{}, false, dErrors.Wrap(err, dErrors.CodeBadRequest, fmt.Sprintf("unreadable file %s", kind))
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return verification.Upload{}, false, dErrors.Wrap(err, dErrors.CodeBadRequest, fmt.Sprintf("unreadable file %s", kind))
	}
	return verification.Upload{
		Kind:        kind,
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Data:        data,
	}, true, nil
}

// StatusCode maps a verdict to its HTTP status.
func StatusCode(v verification.Verdict) int {
	if v.Accepted {
		return http.StatusOK
	}
	switch v.Rejection.Reason {
	case verification.ReasonFaceMismatch:
		return http.StatusForbidden
	case verification.ReasonDeliveryFailed:
		return http.StatusBadGateway
	case verification.ReasonInternalError:
		return http.StatusInternalServerError
	}
	return http.StatusBadRequest
}

// Package handler exposes asynchronous proofing over HTTP: one route to
// enqueue a job and one to poll its result.
package handler

//go:generate mockgen -source=handler.go -destination=mocks/mocks.go -package=mocks Service

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"idv/internal/platform/metrics"
	"idv/internal/platform/middleware"
	"idv/internal/proofing/pii"
	"idv/internal/proofing/service"
	dErrors "idv/pkg/domain-errors"
	"idv/pkg/platform/httputil"
)

// Service is the proofing application service.
type Service interface {
	Enqueue(ctx context.Context, req service.EnqueueRequest) (string, error)
	Poll(ctx context.Context, resultID string) (service.PollResponse, error)
}

// EnqueueRequest is the POST body.
type EnqueueRequest struct {
	Applicant               pii.Applicant `json:"applicant"`
	ThreatMetrixSessionID   string        `json:"threatmetrix_session_id,omitempty"`
	IPPEnrollmentInProgress bool          `json:"ipp_enrollment_in_progress,omitempty"`
	ProofingVendor          string        `json:"proofing_vendor,omitempty"`
	DocumentCheckVendor     string        `json:"document_check_vendor,omitempty"`
}

// EnqueueResponse tells the caller what to poll.
type EnqueueResponse struct {
	ResultID string `json:"result_id"`
	Status   string `json:"status"`
}

type Handler struct {
	logger       *slog.Logger
	proofing     Service
	metrics      *metrics.Metrics
	jwtValidator middleware.JWTValidator
}

func New(proofing Service, logger *slog.Logger, metrics *metrics.Metrics, jwtValidator middleware.JWTValidator) *Handler {
	return &Handler{
		logger:       logger,
		proofing:     proofing,
		metrics:      metrics,
		jwtValidator: jwtValidator,
	}
}

// Register mounts the proofing routes behind the auth middleware.
func (h *Handler) Register(r chi.Router) {
	proofingRouter := chi.NewRouter()
	proofingRouter.Use(middleware.Recovery(h.logger))
	proofingRouter.Use(middleware.RequestID)
	proofingRouter.Use(middleware.Logger(h.logger, h.metrics))
	proofingRouter.Use(timeout(30 * time.Second))
	proofingRouter.Use(middleware.RequireAuth(h.jwtValidator, h.logger))
	proofingRouter.Post("/v1/proofing/resolution", h.handleEnqueue)
	proofingRouter.Get("/v1/proofing/resolution/{id}", h.handlePoll)

	r.Mount("/", proofingRouter)
}

func (h *Handler) handleEnqueue(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)

	userID := middleware.GetUserID(ctx)
	if userID == "" {
		h.logger.ErrorContext(ctx, "userID missing from context despite auth middleware",
			"request_id", requestID,
		)
		httputil.WriteError(w, dErrors.New(dErrors.CodeInternal, "authentication context error"))
		return
	}

	var req EnqueueRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.WarnContext(ctx, "invalid proofing request",
			"request_id", requestID,
			"error", err.Error(),
		)
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	resultID, err := h.proofing.Enqueue(ctx, service.EnqueueRequest{
		Applicant:               req.Applicant,
		UserID:                  userID,
		ServiceProvider:         middleware.GetClientID(ctx),
		ThreatMetrixSessionID:   req.ThreatMetrixSessionID,
		IPPEnrollmentInProgress: req.IPPEnrollmentInProgress,
		ProofingVendor:          req.ProofingVendor,
		DocumentCheckVendor:     req.DocumentCheckVendor,
	})
	if err != nil {
		if dErrors.Is(err, dErrors.CodeInvalidInput) || dErrors.Is(err, dErrors.CodeRateLimited) {
			h.logger.WarnContext(ctx, "rejected proofing request",
				"request_id", requestID,
				"error", err.Error(),
			)
		} else {
			h.logger.ErrorContext(ctx, "failed to enqueue proofing",
				"request_id", requestID,
				"error", err.Error(),
			)
		}
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusAccepted, EnqueueResponse{ResultID: resultID, Status: "in_progress"})
}

func (h *Handler) handlePoll(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	resultID := chi.URLParam(r, "id")

	resp, err := h.proofing.Poll(ctx, resultID)
	if err != nil {
		if !dErrors.Is(err, dErrors.CodeNotFound) {
			h.logger.ErrorContext(ctx, "failed to poll proofing result",
				"request_id", middleware.GetRequestID(ctx),
				"result_id", resultID,
				"error", err.Error(),
			)
		}
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}

func timeout(d time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, cancel := context.WithTimeout(r.Context(), d)
			defer cancel()
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

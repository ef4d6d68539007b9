package http

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/dubinc/partner-integrity/internal/application"
	"github.com/dubinc/partner-integrity/internal/contracts"
)

func (h *Handler) healthz(w http.ResponseWriter, _ *http.Request) {
	writeMessage(w, http.StatusOK, "ok")
}

func (h *Handler) readyz(w http.ResponseWriter, r *http.Request) {
	if h.readyCheck != nil {
		if err := h.readyCheck(r.Context()); err != nil {
			writeError(w, http.StatusServiceUnavailable, "NOT_READY", err.Error(), requestIDFromContext(r.Context()))
			return
		}
	}
	writeMessage(w, http.StatusOK, "ready")
}

func (h *Handler) createPostback(w http.ResponseWriter, r *http.Request) {
	var req contracts.CreatePostbackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", err.Error(), requestIDFromContext(r.Context()))
		return
	}
	row, err := h.service.CreatePostback(r.Context(), application.CreatePostbackInput{
		PartnerID:   strings.TrimSpace(req.PartnerID),
		URL:         strings.TrimSpace(req.URL),
		Destination: strings.TrimSpace(req.Destination),
		Triggers:    req.Triggers,
	})
	if err != nil {
		status, code, message := mapDomainError(err)
		logHTTPOperationError(r.Context(), "create_postback", status, code, message, err)
		writeError(w, status, code, message, requestIDFromContext(r.Context()))
		return
	}
	writeSuccess(w, http.StatusCreated, row)
}

func (h *Handler) listPostbacks(w http.ResponseWriter, r *http.Request) {
	rows, err := h.service.ListPostbacks(r.Context(), strings.TrimSpace(r.URL.Query().Get("partner_id")))
	if err != nil {
		status, code, message := mapDomainError(err)
		writeError(w, status, code, message, requestIDFromContext(r.Context()))
		return
	}
	writeSuccess(w, http.StatusOK, rows)
}

func (h *Handler) disablePostback(w http.ResponseWriter, r *http.Request) {
	h.setPostbackDisabled(w, r, true)
}

func (h *Handler) enablePostback(w http.ResponseWriter, r *http.Request) {
	h.setPostbackDisabled(w, r, false)
}

func (h *Handler) setPostbackDisabled(w http.ResponseWriter, r *http.Request, disabled bool) {
	err := h.service.SetPostbackDisabled(r.Context(), chi.URLParam(r, "postback_id"), disabled)
	if err != nil {
		status, code, message := mapDomainError(err)
		writeError(w, status, code, message, requestIDFromContext(r.Context()))
		return
	}
	if disabled {
		writeMessage(w, http.StatusOK, "postback disabled")
		return
	}
	writeMessage(w, http.StatusOK, "postback enabled")
}

// deliveryCallback records the delivery queue's settled outcome for one
// dispatched postback. The queue invokes these URLs itself, so parameters
// arrive in the query string rather than a request body.
func (h *Handler) deliveryCallback(success bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		err := h.service.RecordDeliveryOutcome(r.Context(), application.DeliveryOutcomeInput{
			PostbackID: strings.TrimSpace(q.Get("postback_id")),
			EventID:    strings.TrimSpace(q.Get("event_id")),
			Trigger:    strings.TrimSpace(q.Get("event")),
			Success:    success,
		})
		if err != nil {
			status, code, message := mapDomainError(err)
			logHTTPOperationError(r.Context(), "delivery_callback", status, code, message, err)
			writeError(w, status, code, message, requestIDFromContext(r.Context()))
			return
		}
		writeMessage(w, http.StatusOK, "recorded")
	}
}

func (h *Handler) listFraudEvents(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, _ = strconv.Atoi(raw)
	}
	rows, err := h.service.ListFraudEvents(r.Context(), strings.TrimSpace(r.URL.Query().Get("partner_id")), limit)
	if err != nil {
		status, code, message := mapDomainError(err)
		writeError(w, status, code, message, requestIDFromContext(r.Context()))
		return
	}
	writeSuccess(w, http.StatusOK, rows)
}

func (h *Handler) trustEnrollment(w http.ResponseWriter, r *http.Request) {
	h.setEnrollmentTrusted(w, r, true)
}

func (h *Handler) untrustEnrollment(w http.ResponseWriter, r *http.Request) {
	h.setEnrollmentTrusted(w, r, false)
}

func (h *Handler) setEnrollmentTrusted(w http.ResponseWriter, r *http.Request, trusted bool) {
	err := h.service.SetEnrollmentTrusted(r.Context(), chi.URLParam(r, "partner_id"), chi.URLParam(r, "program_id"), trusted)
	if err != nil {
		status, code, message := mapDomainError(err)
		writeError(w, status, code, message, requestIDFromContext(r.Context()))
		return
	}
	if trusted {
		writeMessage(w, http.StatusOK, "enrollment trusted")
		return
	}
	writeMessage(w, http.StatusOK, "enrollment untrusted")
}

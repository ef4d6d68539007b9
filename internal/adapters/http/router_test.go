package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dubinc/partner-integrity/internal/application"
	"github.com/dubinc/partner-integrity/internal/contracts"
	"github.com/dubinc/partner-integrity/internal/domain"
)

type stubPostbacks struct {
	created    []domain.Postback
	deliveries []domain.PostbackDelivery
}

func (s *stubPostbacks) Create(_ context.Context, row domain.Postback) error {
	s.created = append(s.created, row)
	return nil
}

func (s *stubPostbacks) Get(_ context.Context, postbackID string) (domain.Postback, error) {
	for _, row := range s.created {
		if row.PostbackID == postbackID {
			return row, nil
		}
	}
	return domain.Postback{}, domain.ErrNotFound
}

func (s *stubPostbacks) ListByPartner(_ context.Context, partnerID string) ([]domain.Postback, error) {
	var out []domain.Postback
	for _, row := range s.created {
		if row.PartnerID == partnerID {
			out = append(out, row)
		}
	}
	return out, nil
}

func (s *stubPostbacks) ListEnabledByTrigger(_ context.Context, partnerID string, trigger domain.PostbackTrigger) ([]domain.Postback, error) {
	var out []domain.Postback
	for _, row := range s.created {
		if row.PartnerID == partnerID && row.Matches(trigger) {
			out = append(out, row)
		}
	}
	return out, nil
}

func (s *stubPostbacks) SetDisabled(_ context.Context, postbackID string, disabledAt *time.Time) error {
	for i := range s.created {
		if s.created[i].PostbackID == postbackID {
			s.created[i].DisabledAt = disabledAt
			return nil
		}
	}
	return domain.ErrNotFound
}

func (s *stubPostbacks) RecordDelivery(_ context.Context, row domain.PostbackDelivery) error {
	s.deliveries = append(s.deliveries, row)
	return nil
}

func newTestRouter(t *testing.T) (http.Handler, *stubPostbacks) {
	t.Helper()
	postbacks := &stubPostbacks{}
	svc := application.NewService(application.Dependencies{
		Config:    application.Config{CallbackBaseURL: "https://integrity.example.com"},
		Postbacks: postbacks,
	})
	handler := NewHandler(HandlerConfig{Service: svc, InternalToken: "internal-token"})
	return NewRouter(handler), postbacks
}

func TestRouterHealthz(t *testing.T) {
	router, _ := newTestRouter(t)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if rec.Header().Get("X-Request-Id") == "" {
		t.Fatal("request id header missing")
	}
}

func TestRouterRejectsMissingToken(t *testing.T) {
	router, _ := newTestRouter(t)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/postbacks", strings.NewReader("{}")))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
	var resp contracts.ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Error.Code != "UNAUTHORIZED" {
		t.Fatalf("code = %q", resp.Error.Code)
	}
}

func TestRouterCreatePostback(t *testing.T) {
	router, postbacks := newTestRouter(t)
	body := `{"partner_id":"pn_1","url":"https://partner.example.com/hooks","triggers":["lead.created"]}`
	req := httptest.NewRequest(http.MethodPost, "/v1/postbacks", strings.NewReader(body))
	req.Header.Set("Authorization", "Bearer internal-token")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	if len(postbacks.created) != 1 {
		t.Fatalf("created = %d", len(postbacks.created))
	}
	row := postbacks.created[0]
	if !strings.HasPrefix(row.PostbackID, "pb_") || row.Secret == "" {
		t.Fatalf("row = %+v", row)
	}
	var resp contracts.SuccessResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	data, _ := resp.Data.(map[string]any)
	if data["secret"] != row.Secret {
		t.Fatal("secret must be returned on creation")
	}
}

func TestRouterCreatePostbackRejectsPlainHTTP(t *testing.T) {
	router, _ := newTestRouter(t)
	body := `{"partner_id":"pn_1","url":"http://partner.example.com/hooks","triggers":["lead.created"]}`
	req := httptest.NewRequest(http.MethodPost, "/v1/postbacks", strings.NewReader(body))
	req.Header.Set("Authorization", "Bearer internal-token")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
	var resp contracts.ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Error.Code != "VALIDATION_ERROR" {
		t.Fatalf("code = %q", resp.Error.Code)
	}
}

func TestRouterCreatePostbackUnknownDestination(t *testing.T) {
	router, _ := newTestRouter(t)
	body := `{"partner_id":"pn_1","url":"https://partner.example.com/hooks","destination":"teams","triggers":["lead.created"]}`
	req := httptest.NewRequest(http.MethodPost, "/v1/postbacks", strings.NewReader(body))
	req.Header.Set("Authorization", "Bearer internal-token")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
	var resp contracts.ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Error.Code != "UNKNOWN_DESTINATION" {
		t.Fatalf("code = %q", resp.Error.Code)
	}
}

func TestRouterDeliveryCallbackNeedsNoToken(t *testing.T) {
	router, postbacks := newTestRouter(t)
	target := "/v1/postbacks/callbacks/success?postback_id=pb_1&event_id=evt_1&event=lead.created"
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, target, nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	if len(postbacks.deliveries) != 1 {
		t.Fatalf("deliveries = %d", len(postbacks.deliveries))
	}
	del := postbacks.deliveries[0]
	if !del.Success || del.PostbackID != "pb_1" || del.EventID != "evt_1" {
		t.Fatalf("delivery = %+v", del)
	}
}

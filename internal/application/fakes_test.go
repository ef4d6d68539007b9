package application

import (
	"context"
	"sync"
	"time"

	"github.com/dubinc/partner-integrity/internal/adapters/delivery"
	"github.com/dubinc/partner-integrity/internal/adapters/security"
	"github.com/dubinc/partner-integrity/internal/domain"
	"github.com/dubinc/partner-integrity/internal/ports"
)

type fakeEnrollments struct {
	mu   sync.Mutex
	rows map[string]domain.ProgramEnrollment
}

func newFakeEnrollments() *fakeEnrollments {
	return &fakeEnrollments{rows: map[string]domain.ProgramEnrollment{}}
}

func enrollmentKey(partnerID, programID string) string { return partnerID + "/" + programID }

func (f *fakeEnrollments) put(row domain.ProgramEnrollment) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rows[enrollmentKey(row.PartnerID, row.ProgramID)] = row
}

func (f *fakeEnrollments) Get(_ context.Context, partnerID, programID string) (domain.ProgramEnrollment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	row, ok := f.rows[enrollmentKey(partnerID, programID)]
	if !ok {
		return domain.ProgramEnrollment{}, domain.ErrNotFound
	}
	return row, nil
}

func (f *fakeEnrollments) SetTrusted(_ context.Context, partnerID, programID string, trustedAt *time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	row, ok := f.rows[enrollmentKey(partnerID, programID)]
	if !ok {
		return domain.ErrNotFound
	}
	row.TrustedAt = trustedAt
	f.rows[enrollmentKey(partnerID, programID)] = row
	return nil
}

type fakePartnerUsers struct {
	rows map[string]domain.PartnerUser
}

func newFakePartnerUsers() *fakePartnerUsers {
	return &fakePartnerUsers{rows: map[string]domain.PartnerUser{}}
}

func (f *fakePartnerUsers) FirstByPartner(_ context.Context, partnerID string) (domain.PartnerUser, error) {
	row, ok := f.rows[partnerID]
	if !ok {
		return domain.PartnerUser{}, domain.ErrNotFound
	}
	return row, nil
}

type fakeFraudEvents struct {
	mu      sync.Mutex
	calls   []ports.RecordFraudParams
	rows    map[string]domain.FraudEvent
	outbox  []ports.OutboxEvent
	recordE error
}

func newFakeFraudEvents() *fakeFraudEvents {
	return &fakeFraudEvents{rows: map[string]domain.FraudEvent{}}
}

func (f *fakeFraudEvents) RecordTx(_ context.Context, params ports.RecordFraudParams) (domain.FraudEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.recordE != nil {
		return domain.FraudEvent{}, f.recordE
	}
	f.calls = append(f.calls, params)

	key := params.PartnerID + "/" + params.CustomerID
	row, ok := f.rows[key]
	if !ok {
		row = domain.FraudEvent{
			FraudEventID: "fe_" + key,
			PartnerID:    params.PartnerID,
			CustomerID:   params.CustomerID,
			ProgramID:    params.ProgramID,
			LinkID:       params.LinkID,
			CreatedAt:    params.Now,
		}
	}
	for _, t := range params.Types {
		switch t {
		case domain.FraudTypeSelfReferral:
			row.SelfReferral = true
		case domain.FraudTypeGoogleAdsClick:
			row.GoogleAdsClick = true
		case domain.FraudTypeDisposableEmail:
			row.DisposableEmail = true
		}
	}
	row.Details = params.Details
	row.UpdatedAt = params.Now
	f.rows[key] = row
	if params.Outbox != nil {
		f.outbox = append(f.outbox, *params.Outbox)
	}
	return row, nil
}

func (f *fakeFraudEvents) GetByPair(_ context.Context, partnerID, customerID string) (domain.FraudEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	row, ok := f.rows[partnerID+"/"+customerID]
	if !ok {
		return domain.FraudEvent{}, domain.ErrNotFound
	}
	return row, nil
}

func (f *fakeFraudEvents) ListByPartner(_ context.Context, partnerID string, limit int) ([]domain.FraudEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]domain.FraudEvent, 0)
	for _, row := range f.rows {
		if row.PartnerID == partnerID && len(out) < limit {
			out = append(out, row)
		}
	}
	return out, nil
}

func (f *fakeFraudEvents) recordCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

type fakePostbacks struct {
	mu         sync.Mutex
	rows       map[string]domain.Postback
	deliveries []domain.PostbackDelivery
	listErr    error
}

func newFakePostbacks() *fakePostbacks {
	return &fakePostbacks{rows: map[string]domain.Postback{}}
}

func (f *fakePostbacks) Create(_ context.Context, row domain.Postback) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.rows[row.PostbackID]; ok {
		return domain.ErrConflict
	}
	f.rows[row.PostbackID] = row
	return nil
}

func (f *fakePostbacks) Get(_ context.Context, postbackID string) (domain.Postback, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	row, ok := f.rows[postbackID]
	if !ok {
		return domain.Postback{}, domain.ErrNotFound
	}
	return row, nil
}

func (f *fakePostbacks) ListByPartner(_ context.Context, partnerID string) ([]domain.Postback, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]domain.Postback, 0)
	for _, row := range f.rows {
		if row.PartnerID == partnerID {
			out = append(out, row)
		}
	}
	return out, nil
}

func (f *fakePostbacks) ListEnabledByTrigger(_ context.Context, partnerID string, trigger domain.PostbackTrigger) ([]domain.Postback, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := make([]domain.Postback, 0)
	for _, row := range f.rows {
		if row.PartnerID == partnerID && row.Matches(trigger) {
			out = append(out, row)
		}
	}
	return out, nil
}

func (f *fakePostbacks) SetDisabled(_ context.Context, postbackID string, disabledAt *time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	row, ok := f.rows[postbackID]
	if !ok {
		return domain.ErrNotFound
	}
	row.DisabledAt = disabledAt
	f.rows[postbackID] = row
	return nil
}

func (f *fakePostbacks) RecordDelivery(_ context.Context, row domain.PostbackDelivery) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deliveries = append(f.deliveries, row)
	return nil
}

type fakeDedup struct {
	mu   sync.Mutex
	seen map[string]time.Time
}

func newFakeDedup() *fakeDedup { return &fakeDedup{seen: map[string]time.Time{}} }

func (f *fakeDedup) IsDuplicate(_ context.Context, eventID string, now time.Time) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	expires, ok := f.seen[eventID]
	return ok && expires.After(now), nil
}

func (f *fakeDedup) MarkProcessed(_ context.Context, eventID, _ string, expiresAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seen[eventID] = expiresAt
	return nil
}

type fakeDisposableDomains struct {
	domains map[string]bool
	err     error
}

func (f *fakeDisposableDomains) IsDisposable(_ context.Context, emailDomain string) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	return f.domains[emailDomain], nil
}

type fakeCommissions struct {
	rows map[string]domain.Commission
}

func (f *fakeCommissions) Get(_ context.Context, commissionID string) (domain.Commission, error) {
	row, ok := f.rows[commissionID]
	if !ok {
		return domain.Commission{}, domain.ErrNotFound
	}
	return row, nil
}

type testDeps struct {
	enrollments  *fakeEnrollments
	partnerUsers *fakePartnerUsers
	fraudEvents  *fakeFraudEvents
	commissions  *fakeCommissions
	postbacks    *fakePostbacks
	dedup        *fakeDedup
	disposable   *fakeDisposableDomains
	queue        *delivery.MemoryQueue
}

func newTestService() (*Service, *testDeps) {
	deps := &testDeps{
		enrollments:  newFakeEnrollments(),
		partnerUsers: newFakePartnerUsers(),
		fraudEvents:  newFakeFraudEvents(),
		commissions:  &fakeCommissions{rows: map[string]domain.Commission{}},
		postbacks:    newFakePostbacks(),
		dedup:        newFakeDedup(),
		disposable:   &fakeDisposableDomains{domains: map[string]bool{}},
		queue:        delivery.NewMemoryQueue(),
	}
	svc := NewService(Dependencies{
		Config: Config{
			CallbackBaseURL: "https://integrity.example.com",
		},
		Enrollments:       deps.enrollments,
		PartnerUsers:      deps.partnerUsers,
		FraudEvents:       deps.fraudEvents,
		Commissions:       deps.commissions,
		Postbacks:         deps.postbacks,
		EventDedup:        deps.dedup,
		DisposableDomains: deps.disposable,
		Queue:             deps.queue,
		Signer:            security.NewHMACSigner(),
	})
	return svc, deps
}

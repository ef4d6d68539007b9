package application

import (
	"log/slog"
	"time"

	"github.com/dubinc/partner-integrity/internal/domain"
	"github.com/dubinc/partner-integrity/internal/ports"
)

type Service struct {
	cfg    Config
	logger *slog.Logger

	enrollments  ports.EnrollmentRepository
	partnerUsers ports.PartnerUserRepository
	fraudEvents  ports.FraudEventRepository
	commissions  ports.CommissionRepository
	postbacks    ports.PostbackRepository
	eventDedup   ports.EventDedupRepository

	disposableDomains ports.DisposableDomainStore
	queue             ports.DeliveryQueue
	signer            ports.PayloadSigner

	// Dispatch tables are built once at construction; no import-time
	// registration anywhere.
	enrichers    map[domain.PostbackTrigger]enricher
	destinations map[domain.PostbackDestination]destinationAdapter

	nowFn func() time.Time
}

type Dependencies struct {
	Config            Config
	Logger            *slog.Logger
	Enrollments       ports.EnrollmentRepository
	PartnerUsers      ports.PartnerUserRepository
	FraudEvents       ports.FraudEventRepository
	Commissions       ports.CommissionRepository
	Postbacks         ports.PostbackRepository
	EventDedup        ports.EventDedupRepository
	DisposableDomains ports.DisposableDomainStore
	Queue             ports.DeliveryQueue
	Signer            ports.PayloadSigner
}

func NewService(deps Dependencies) *Service {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	cfg := deps.Config
	if cfg.ServiceName == "" {
		cfg.ServiceName = "partner-integrity"
	}
	if cfg.DedupTTL == 0 {
		cfg.DedupTTL = 7 * 24 * time.Hour
	}
	return &Service{
		cfg:               cfg,
		logger:            logger,
		enrollments:       deps.Enrollments,
		partnerUsers:      deps.PartnerUsers,
		fraudEvents:       deps.FraudEvents,
		commissions:       deps.Commissions,
		postbacks:         deps.Postbacks,
		eventDedup:        deps.EventDedup,
		disposableDomains: deps.DisposableDomains,
		queue:             deps.Queue,
		signer:            deps.Signer,
		enrichers:         newEnricherTable(),
		destinations:      newDestinationTable(),
		nowFn:             func() time.Time { return time.Now().UTC() },
	}
}

package postgres

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/dubinc/partner-integrity/internal/domain"
	"github.com/dubinc/partner-integrity/internal/ports"
)

type Repositories struct {
	Enrollments  ports.EnrollmentRepository
	PartnerUsers ports.PartnerUserRepository
	FraudEvents  ports.FraudEventRepository
	Commissions  ports.CommissionRepository
	Postbacks    ports.PostbackRepository
	Outbox       ports.OutboxRepository
	EventDedup   ports.EventDedupRepository
}

func NewRepositories(db *gorm.DB) Repositories {
	return Repositories{
		Enrollments:  &enrollmentRepository{db: db},
		PartnerUsers: &partnerUserRepository{db: db},
		FraudEvents:  &fraudEventRepository{db: db},
		Commissions:  &commissionRepository{db: db},
		Postbacks:    &postbackRepository{db: db},
		Outbox:       &outboxRepository{db: db},
		EventDedup:   &eventDedupRepository{db: db},
	}
}

type commissionRepository struct {
	db *gorm.DB
}

func (r *commissionRepository) Get(ctx context.Context, commissionID string) (domain.Commission, error) {
	var rec commissionModel
	if err := r.db.WithContext(ctx).Where("commission_id = ?", commissionID).Take(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Commission{}, domain.ErrNotFound
		}
		return domain.Commission{}, err
	}
	return domain.Commission{
		CommissionID: rec.CommissionID,
		PartnerID:    rec.PartnerID,
		CustomerID:   rec.CustomerID,
		Amount:       rec.Amount,
		Currency:     rec.Currency,
		Status:       rec.Status,
		FraudEventID: rec.FraudEventID,
		CreatedAt:    rec.CreatedAt,
		UpdatedAt:    rec.UpdatedAt,
	}, nil
}

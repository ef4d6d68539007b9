package postgres

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/dubinc/partner-integrity/internal/domain"
)

type enrollmentRepository struct {
	db *gorm.DB
}

func (r *enrollmentRepository) Get(ctx context.Context, partnerID, programID string) (domain.ProgramEnrollment, error) {
	var rec enrollmentModel
	if err := r.db.WithContext(ctx).Where("partner_id = ? AND program_id = ?", partnerID, programID).Take(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ProgramEnrollment{}, domain.ErrNotFound
		}
		return domain.ProgramEnrollment{}, err
	}
	return toDomainEnrollment(rec), nil
}

func (r *enrollmentRepository) SetTrusted(ctx context.Context, partnerID, programID string, trustedAt *time.Time) error {
	res := r.db.WithContext(ctx).Model(&enrollmentModel{}).
		Where("partner_id = ? AND program_id = ?", partnerID, programID).
		Update("trusted_at", trustedAt)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

type partnerUserRepository struct {
	db *gorm.DB
}

func (r *partnerUserRepository) FirstByPartner(ctx context.Context, partnerID string) (domain.PartnerUser, error) {
	var rec partnerUserModel
	if err := r.db.WithContext(ctx).
		Where("partner_id = ?", partnerID).
		Order("created_at ASC").
		Take(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.PartnerUser{}, domain.ErrNotFound
		}
		return domain.PartnerUser{}, err
	}
	return toDomainPartnerUser(rec), nil
}

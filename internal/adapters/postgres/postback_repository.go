package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/dubinc/partner-integrity/internal/domain"
)

type postbackRepository struct {
	db *gorm.DB
}

func (r *postbackRepository) Create(ctx context.Context, row domain.Postback) error {
	rec := postbackModel{
		PostbackID:  row.PostbackID,
		PartnerID:   row.PartnerID,
		URL:         row.URL,
		Secret:      row.Secret,
		Destination: string(row.Destination),
		Triggers:    marshalTriggers(row.Triggers),
		DisabledAt:  row.DisabledAt,
		CreatedAt:   row.CreatedAt,
		UpdatedAt:   row.UpdatedAt,
	}
	if err := r.db.WithContext(ctx).Create(&rec).Error; err != nil {
		if isUniqueViolation(err) {
			return domain.ErrConflict
		}
		return err
	}
	return nil
}

func (r *postbackRepository) Get(ctx context.Context, postbackID string) (domain.Postback, error) {
	var rec postbackModel
	if err := r.db.WithContext(ctx).Where("postback_id = ?", postbackID).Take(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Postback{}, domain.ErrNotFound
		}
		return domain.Postback{}, err
	}
	return toDomainPostback(rec), nil
}

func (r *postbackRepository) ListByPartner(ctx context.Context, partnerID string) ([]domain.Postback, error) {
	var rows []postbackModel
	if err := r.db.WithContext(ctx).
		Where("partner_id = ?", partnerID).
		Order("created_at ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]domain.Postback, 0, len(rows))
	for _, row := range rows {
		out = append(out, toDomainPostback(row))
	}
	return out, nil
}

func (r *postbackRepository) ListEnabledByTrigger(ctx context.Context, partnerID string, trigger domain.PostbackTrigger) ([]domain.Postback, error) {
	var rows []postbackModel
	if err := r.db.WithContext(ctx).
		Where("partner_id = ? AND disabled_at IS NULL AND triggers @> ?", partnerID, fmt.Sprintf(`[%q]`, string(trigger))).
		Order("created_at ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]domain.Postback, 0, len(rows))
	for _, row := range rows {
		out = append(out, toDomainPostback(row))
	}
	return out, nil
}

func (r *postbackRepository) SetDisabled(ctx context.Context, postbackID string, disabledAt *time.Time) error {
	res := r.db.WithContext(ctx).Model(&postbackModel{}).
		Where("postback_id = ?", postbackID).
		Updates(map[string]any{
			"disabled_at": disabledAt,
			"updated_at":  time.Now().UTC(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// RecordDelivery persists a queue callback and keeps the consecutive failure
// counter on the registration current.
func (r *postbackRepository) RecordDelivery(ctx context.Context, row domain.PostbackDelivery) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		rec := postbackDeliveryModel{
			DeliveryID: row.DeliveryID,
			PostbackID: row.PostbackID,
			EventID:    row.EventID,
			Trigger:    string(row.Trigger),
			Success:    row.Success,
			RecordedAt: row.RecordedAt,
		}
		if err := tx.Create(&rec).Error; err != nil {
			return err
		}

		updates := map[string]any{"updated_at": row.RecordedAt}
		if row.Success {
			updates["consecutive_failures"] = 0
		} else {
			updates["consecutive_failures"] = gorm.Expr("consecutive_failures + 1")
		}
		return tx.Model(&postbackModel{}).
			Where("postback_id = ?", row.PostbackID).
			Updates(updates).Error
	})
}

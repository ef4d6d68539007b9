package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/dubinc/partner-integrity/internal/domain"
	"github.com/dubinc/partner-integrity/internal/ports"
)

type fraudEventRepository struct {
	db *gorm.DB
}

// RecordTx applies one detection atomically: find-or-create on the unique
// (partner_id, customer_id) pair, per-type flags, merged details, the
// optional commission hold, and the outbox record. A losing create race is
// retried as an update inside the same transaction.
func (r *fraudEventRepository) RecordTx(ctx context.Context, params ports.RecordFraudParams) (domain.FraudEvent, error) {
	var result domain.FraudEvent
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		row, err := r.findOrCreate(tx, params)
		if err != nil {
			return err
		}

		if params.CommissionID != "" {
			res := tx.Model(&commissionModel{}).
				Where("commission_id = ?", params.CommissionID).
				Updates(map[string]any{
					"status":         domain.CommissionStatusHeld,
					"fraud_event_id": row.FraudEventID,
					"updated_at":     params.Now,
				})
			if res.Error != nil {
				return fmt.Errorf("hold commission %s: %w", params.CommissionID, res.Error)
			}
			if res.RowsAffected == 0 {
				return fmt.Errorf("hold commission %s: %w", params.CommissionID, domain.ErrNotFound)
			}
		}

		if params.Outbox != nil {
			outbox := outboxModel{
				EventID:      params.Outbox.EventID,
				EventType:    params.Outbox.EventType,
				PartitionKey: params.Outbox.PartitionKey,
				Payload:      string(params.Outbox.Payload),
				CreatedAt:    params.Outbox.OccurredAt,
			}
			if err := tx.Create(&outbox).Error; err != nil {
				return fmt.Errorf("enqueue outbox record: %w", err)
			}
		}

		result = toDomainFraudEvent(row)
		return nil
	})
	if err != nil {
		return domain.FraudEvent{}, err
	}
	return result, nil
}

func (r *fraudEventRepository) findOrCreate(tx *gorm.DB, params ports.RecordFraudParams) (fraudEventModel, error) {
	var row fraudEventModel
	err := tx.Where("partner_id = ? AND customer_id = ?", params.PartnerID, params.CustomerID).Take(&row).Error
	switch {
	case err == nil:
		return r.applyDetection(tx, row, params)
	case errors.Is(err, gorm.ErrRecordNotFound):
		row = fraudEventModel{
			FraudEventID: "fe_" + uuid.NewString(),
			PartnerID:    params.PartnerID,
			CustomerID:   params.CustomerID,
			ProgramID:    params.ProgramID,
			LinkID:       nullableString(params.LinkID),
			CreatedAt:    params.Now,
			UpdatedAt:    params.Now,
		}
		setTypeFlags(&row, params.Types)
		if details := encodeDetails(nil, params.Details); details != nil {
			row.Details = details
		}
		if createErr := tx.Create(&row).Error; createErr != nil {
			if !isUniqueViolation(createErr) {
				return fraudEventModel{}, createErr
			}
			// Lost the race to a concurrent detection for the same pair;
			// fold this result into the winner's row.
			var existing fraudEventModel
			if takeErr := tx.Where("partner_id = ? AND customer_id = ?", params.PartnerID, params.CustomerID).Take(&existing).Error; takeErr != nil {
				return fraudEventModel{}, takeErr
			}
			return r.applyDetection(tx, existing, params)
		}
		return row, nil
	default:
		return fraudEventModel{}, err
	}
}

func (r *fraudEventRepository) applyDetection(tx *gorm.DB, row fraudEventModel, params ports.RecordFraudParams) (fraudEventModel, error) {
	setTypeFlags(&row, params.Types)
	row.Details = encodeDetails(row.Details, params.Details)
	row.UpdatedAt = params.Now
	updates := map[string]any{
		"self_referral":    row.SelfReferral,
		"google_ads_click": row.GoogleAdsClick,
		"disposable_email": row.DisposableEmail,
		"updated_at":       row.UpdatedAt,
	}
	if row.Details != nil {
		updates["details"] = *row.Details
	}
	if err := tx.Model(&fraudEventModel{}).
		Where("fraud_event_id = ?", row.FraudEventID).
		Updates(updates).Error; err != nil {
		return fraudEventModel{}, err
	}
	return row, nil
}

func setTypeFlags(row *fraudEventModel, types []domain.FraudEventType) {
	for _, t := range types {
		switch t {
		case domain.FraudTypeSelfReferral:
			row.SelfReferral = true
		case domain.FraudTypeGoogleAdsClick:
			row.GoogleAdsClick = true
		case domain.FraudTypeDisposableEmail:
			row.DisposableEmail = true
		}
	}
}

// encodeDetails merges new detector details over any previously stored blob.
func encodeDetails(existing *string, details map[string]any) *string {
	if len(details) == 0 {
		return existing
	}
	merged := map[string]any{}
	if existing != nil && *existing != "" {
		_ = json.Unmarshal([]byte(*existing), &merged)
	}
	for k, v := range details {
		merged[k] = v
	}
	raw, err := json.Marshal(merged)
	if err != nil {
		return existing
	}
	encoded := string(raw)
	return &encoded
}

func (r *fraudEventRepository) GetByPair(ctx context.Context, partnerID, customerID string) (domain.FraudEvent, error) {
	var row fraudEventModel
	if err := r.db.WithContext(ctx).Where("partner_id = ? AND customer_id = ?", partnerID, customerID).Take(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.FraudEvent{}, domain.ErrNotFound
		}
		return domain.FraudEvent{}, err
	}
	return toDomainFraudEvent(row), nil
}

func (r *fraudEventRepository) ListByPartner(ctx context.Context, partnerID string, limit int) ([]domain.FraudEvent, error) {
	var rows []fraudEventModel
	if err := r.db.WithContext(ctx).
		Where("partner_id = ?", partnerID).
		Order("updated_at DESC").
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]domain.FraudEvent, 0, len(rows))
	for _, row := range rows {
		out = append(out, toDomainFraudEvent(row))
	}
	return out, nil
}

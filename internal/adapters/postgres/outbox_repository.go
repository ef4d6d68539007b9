package postgres

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/dubinc/partner-integrity/internal/ports"
)

type outboxRepository struct {
	db *gorm.DB
}

func (r *outboxRepository) ListPending(ctx context.Context, limit int) ([]ports.OutboxEvent, error) {
	var rows []outboxModel
	if err := r.db.WithContext(ctx).
		Where("published_at IS NULL").
		Order("created_at ASC").
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]ports.OutboxEvent, 0, len(rows))
	for _, row := range rows {
		out = append(out, ports.OutboxEvent{
			EventID:      row.EventID,
			EventType:    row.EventType,
			PartitionKey: row.PartitionKey,
			Payload:      []byte(row.Payload),
			OccurredAt:   row.CreatedAt,
		})
	}
	return out, nil
}

func (r *outboxRepository) MarkSent(ctx context.Context, eventID string, at time.Time) error {
	return r.db.WithContext(ctx).Model(&outboxModel{}).
		Where("event_id = ?", eventID).
		Update("published_at", at).Error
}

type eventDedupRepository struct {
	db *gorm.DB
}

func (r *eventDedupRepository) IsDuplicate(ctx context.Context, eventID string, now time.Time) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&eventDedupModel{}).
		Where("event_id = ? AND expires_at > ?", eventID, now).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *eventDedupRepository) MarkProcessed(ctx context.Context, eventID, eventType string, expiresAt time.Time) error {
	rec := eventDedupModel{
		EventID:     eventID,
		EventType:   eventType,
		ProcessedAt: time.Now().UTC(),
		ExpiresAt:   expiresAt,
	}
	err := r.db.WithContext(ctx).Create(&rec).Error
	if err != nil && isUniqueViolation(err) {
		return nil
	}
	return err
}

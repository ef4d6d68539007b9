package postgres

import (
	"encoding/json"
	"errors"
	"strings"

	"github.com/dubinc/partner-integrity/internal/domain"
	"gorm.io/gorm"
)

func toDomainFraudEvent(row fraudEventModel) domain.FraudEvent {
	out := domain.FraudEvent{
		FraudEventID:    row.FraudEventID,
		PartnerID:       row.PartnerID,
		CustomerID:      row.CustomerID,
		ProgramID:       row.ProgramID,
		SelfReferral:    row.SelfReferral,
		GoogleAdsClick:  row.GoogleAdsClick,
		DisposableEmail: row.DisposableEmail,
		CreatedAt:       row.CreatedAt,
		UpdatedAt:       row.UpdatedAt,
	}
	if row.LinkID != nil {
		out.LinkID = *row.LinkID
	}
	if row.Details != nil && *row.Details != "" {
		var details map[string]any
		if err := json.Unmarshal([]byte(*row.Details), &details); err == nil {
			out.Details = details
		}
	}
	return out
}

func toDomainEnrollment(row enrollmentModel) domain.ProgramEnrollment {
	return domain.ProgramEnrollment{
		PartnerID:                    row.PartnerID,
		ProgramID:                    row.ProgramID,
		TrustedAt:                    row.TrustedAt,
		CustomerDataSharingEnabledAt: row.CustomerDataSharingEnabledAt,
		CreatedAt:                    row.CreatedAt,
	}
}

func toDomainPartnerUser(row partnerUserModel) domain.PartnerUser {
	ip := ""
	if row.LastLoginIP != nil {
		ip = *row.LastLoginIP
	}
	return domain.PartnerUser{
		PartnerID:   row.PartnerID,
		UserID:      row.UserID,
		LastLoginIP: ip,
		CreatedAt:   row.CreatedAt,
	}
}

func toDomainPostback(row postbackModel) domain.Postback {
	var triggers []domain.PostbackTrigger
	_ = json.Unmarshal([]byte(row.Triggers), &triggers)
	return domain.Postback{
		PostbackID:          row.PostbackID,
		PartnerID:           row.PartnerID,
		URL:                 row.URL,
		Secret:              row.Secret,
		Destination:         domain.PostbackDestination(row.Destination),
		Triggers:            triggers,
		DisabledAt:          row.DisabledAt,
		ConsecutiveFailures: row.ConsecutiveFailures,
		CreatedAt:           row.CreatedAt,
		UpdatedAt:           row.UpdatedAt,
	}
}

func marshalTriggers(triggers []domain.PostbackTrigger) string {
	raw, err := json.Marshal(triggers)
	if err != nil {
		return "[]"
	}
	return string(raw)
}

func nullableString(v string) *string {
	trimmed := strings.TrimSpace(v)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func isUniqueViolation(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey)
}

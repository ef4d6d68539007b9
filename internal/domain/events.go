package domain

const (
	CanonicalEventClassDomain        = "domain"
	CanonicalEventClassAnalyticsOnly = "analytics_only"
	CanonicalEventClassOps           = "ops"
)

const (
	EventPartnerLeadCreated       = "partner.lead.created"
	EventPartnerSaleCreated       = "partner.sale.created"
	EventPartnerCommissionCreated = "partner.commission.created"
	EventFraudEventRecorded       = "fraud.event.recorded"
)

func IsCanonicalInputEvent(eventType string) bool {
	switch eventType {
	case EventPartnerLeadCreated, EventPartnerSaleCreated, EventPartnerCommissionCreated:
		return true
	default:
		return false
	}
}

func IsCanonicalEmittedEvent(eventType string) bool {
	return eventType == EventFraudEventRecorded
}

func CanonicalEventClass(eventType string) string {
	if IsCanonicalInputEvent(eventType) || IsCanonicalEmittedEvent(eventType) {
		return CanonicalEventClassDomain
	}
	return ""
}

func CanonicalPartitionKeyPath(eventType string) string {
	if IsCanonicalInputEvent(eventType) || IsCanonicalEmittedEvent(eventType) {
		return "data.partner_id"
	}
	return ""
}

// TriggerForEvent maps a canonical input event to the postback trigger it
// drives, if any.
func TriggerForEvent(eventType string) (PostbackTrigger, bool) {
	switch eventType {
	case EventPartnerLeadCreated:
		return TriggerLeadCreated, true
	case EventPartnerSaleCreated:
		return TriggerSaleCreated, true
	case EventPartnerCommissionCreated:
		return TriggerCommissionCreated, true
	default:
		return "", false
	}
}

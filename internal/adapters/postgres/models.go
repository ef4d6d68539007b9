package postgres

import (
	"time"
)

type fraudEventModel struct {
	FraudEventID    string     `gorm:"column:fraud_event_id;primaryKey"`
	PartnerID       string     `gorm:"column:partner_id"`
	CustomerID      string     `gorm:"column:customer_id"`
	ProgramID       string     `gorm:"column:program_id"`
	LinkID          *string    `gorm:"column:link_id"`
	SelfReferral    bool       `gorm:"column:self_referral"`
	GoogleAdsClick  bool       `gorm:"column:google_ads_click"`
	DisposableEmail bool       `gorm:"column:disposable_email"`
	Details         *string    `gorm:"column:details;type:jsonb"`
	CreatedAt       time.Time  `gorm:"column:created_at"`
	UpdatedAt       time.Time  `gorm:"column:updated_at"`
}

func (fraudEventModel) TableName() string { return "fraud_events" }

type enrollmentModel struct {
	PartnerID                    string     `gorm:"column:partner_id;primaryKey"`
	ProgramID                    string     `gorm:"column:program_id;primaryKey"`
	TrustedAt                    *time.Time `gorm:"column:trusted_at"`
	CustomerDataSharingEnabledAt *time.Time `gorm:"column:customer_data_sharing_enabled_at"`
	CreatedAt                    time.Time  `gorm:"column:created_at"`
}

func (enrollmentModel) TableName() string { return "program_enrollments" }

type partnerUserModel struct {
	PartnerID   string    `gorm:"column:partner_id;primaryKey"`
	UserID      string    `gorm:"column:user_id;primaryKey"`
	LastLoginIP *string   `gorm:"column:last_login_ip"`
	CreatedAt   time.Time `gorm:"column:created_at"`
}

func (partnerUserModel) TableName() string { return "partner_users" }

type commissionModel struct {
	CommissionID string    `gorm:"column:commission_id;primaryKey"`
	PartnerID    string    `gorm:"column:partner_id"`
	CustomerID   string    `gorm:"column:customer_id"`
	Amount       float64   `gorm:"column:amount"`
	Currency     string    `gorm:"column:currency"`
	Status       string    `gorm:"column:status"`
	FraudEventID *string   `gorm:"column:fraud_event_id"`
	CreatedAt    time.Time `gorm:"column:created_at"`
	UpdatedAt    time.Time `gorm:"column:updated_at"`
}

func (commissionModel) TableName() string { return "commissions" }

type postbackModel struct {
	PostbackID          string     `gorm:"column:postback_id;primaryKey"`
	PartnerID           string     `gorm:"column:partner_id"`
	URL                 string     `gorm:"column:url"`
	Secret              string     `gorm:"column:secret"`
	Destination         string     `gorm:"column:destination"`
	Triggers            string     `gorm:"column:triggers;type:jsonb"`
	DisabledAt          *time.Time `gorm:"column:disabled_at"`
	ConsecutiveFailures int        `gorm:"column:consecutive_failures"`
	CreatedAt           time.Time  `gorm:"column:created_at"`
	UpdatedAt           time.Time  `gorm:"column:updated_at"`
}

func (postbackModel) TableName() string { return "postbacks" }

type postbackDeliveryModel struct {
	DeliveryID string    `gorm:"column:delivery_id;primaryKey"`
	PostbackID string    `gorm:"column:postback_id"`
	EventID    string    `gorm:"column:event_id"`
	Trigger    string    `gorm:"column:trigger"`
	Success    bool      `gorm:"column:success"`
	RecordedAt time.Time `gorm:"column:recorded_at"`
}

func (postbackDeliveryModel) TableName() string { return "postback_deliveries" }

type outboxModel struct {
	EventID      string     `gorm:"column:event_id;primaryKey"`
	EventType    string     `gorm:"column:event_type"`
	PartitionKey string     `gorm:"column:partition_key"`
	Payload      string     `gorm:"column:payload;type:jsonb"`
	CreatedAt    time.Time  `gorm:"column:created_at"`
	PublishedAt  *time.Time `gorm:"column:published_at"`
}

func (outboxModel) TableName() string { return "fraud_outbox" }

type eventDedupModel struct {
	EventID     string    `gorm:"column:event_id;primaryKey"`
	EventType   string    `gorm:"column:event_type"`
	ProcessedAt time.Time `gorm:"column:processed_at"`
	ExpiresAt   time.Time `gorm:"column:expires_at"`
}

func (eventDedupModel) TableName() string { return "event_dedup" }

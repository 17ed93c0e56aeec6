package store

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// JSONB maps a jsonb column onto a Go map.
type JSONB map[string]interface{}

// Value implements the driver.Valuer interface for JSONB
func (j JSONB) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	return json.Marshal(j)
}

// Scan implements the sql.Scanner interface for JSONB
func (j *JSONB) Scan(value interface{}) error {
	var raw []byte
	switch v := value.(type) {
	case nil:
		*j = nil
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("unsupported type for JSONB: %T", value)
	}

	result := make(JSONB)
	if len(raw) == 0 || string(raw) == "null" {
		*j = result
		return nil
	}
	if err := json.Unmarshal(raw, &result); err != nil {
		return err
	}
	*j = result
	return nil
}

// StringArray maps a text[] column. Elements must not contain commas or braces.
type StringArray []string

// Value implements the driver.Valuer interface for StringArray
func (a StringArray) Value() (driver.Value, error) {
	if a == nil {
		return nil, nil
	}
	return "{" + strings.Join(a, ",") + "}", nil
}

// Scan implements the sql.Scanner interface for StringArray
func (a *StringArray) Scan(value interface{}) error {
	var str string
	switch v := value.(type) {
	case nil:
		*a = nil
		return nil
	case []byte:
		str = string(v)
	case string:
		str = v
	default:
		return fmt.Errorf("unsupported type for StringArray: %T", value)
	}

	str = strings.Trim(str, "{}")
	if str == "" {
		*a = []string{}
		return nil
	}
	*a = strings.Split(str, ",")
	return nil
}

// ReferralStatus is the lifecycle state stored on a referral.
type ReferralStatus string

const (
	ReferralStatusPending   ReferralStatus = "PENDING"
	ReferralStatusClicked   ReferralStatus = "CLICKED"
	ReferralStatusConverted ReferralStatus = "CONVERTED"
	ReferralStatusFlagged   ReferralStatus = "FLAGGED"
)

const (
	RewardStatusPending = "PENDING"
	DefaultCurrency     = "USD"
)

// Reward levels. Level 1 pays per conversion, level 2 pays once per referral.
const (
	RewardLevelDirect   = 1
	RewardLevelIndirect = 2
)

// App is the tenant-scoped unit campaigns hang off.
type App struct {
	ID        uuid.UUID `db:"id" json:"id"`
	AccountID uuid.UUID `db:"account_id" json:"account_id"`
	Name      string    `db:"name" json:"name"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// Campaign groups referrals inside an app.
type Campaign struct {
	ID        uuid.UUID `db:"id" json:"id"`
	AppID     uuid.UUID `db:"app_id" json:"app_id"`
	Name      string    `db:"name" json:"name"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// Referral tracks a referral code from creation through conversion.
type Referral struct {
	ID           uuid.UUID      `db:"id" json:"id"`
	CampaignID   uuid.UUID      `db:"campaign_id" json:"campaign_id"`
	ReferrerID   uuid.UUID      `db:"referrer_id" json:"referrer_id"`
	ReferralCode string         `db:"referral_code" json:"referral_code"`
	Level        int            `db:"level" json:"level"`
	Status       ReferralStatus `db:"status" json:"status"`

	IsFlagged bool       `db:"is_flagged" json:"is_flagged"`
	FlaggedBy *uuid.UUID `db:"flagged_by" json:"flagged_by,omitempty"`
	FlaggedAt *time.Time `db:"flagged_at" json:"flagged_at,omitempty"`

	ClickedAt   *time.Time `db:"clicked_at" json:"clicked_at,omitempty"`
	ConvertedAt *time.Time `db:"converted_at" json:"converted_at,omitempty"`

	RewardAmount decimal.NullDecimal `db:"reward_amount" json:"reward_amount"`

	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// ReferralOwner is a referral together with the app and tenant that own it.
type ReferralOwner struct {
	Referral
	AppID     uuid.UUID `db:"app_id" json:"app_id"`
	AccountID uuid.UUID `db:"account_id" json:"account_id"`
}

// Conversion is an immutable record that a referred user converted.
type Conversion struct {
	ID         uuid.UUID `db:"id" json:"id"`
	ReferralID uuid.UUID `db:"referral_id" json:"referral_id"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

// FraudFlag marks a referral code inside an app as suspicious.
type FraudFlag struct {
	ID           uuid.UUID  `db:"id" json:"id"`
	AppID        uuid.UUID  `db:"app_id" json:"app_id"`
	ReferralCode string     `db:"referral_code" json:"referral_code"`
	FraudType    string     `db:"fraud_type" json:"fraud_type"`
	IsManual     bool       `db:"is_manual" json:"is_manual"`
	IsResolved   bool       `db:"is_resolved" json:"is_resolved"`
	ResolvedBy   *uuid.UUID `db:"resolved_by" json:"resolved_by,omitempty"`
	ResolvedAt   *time.Time `db:"resolved_at" json:"resolved_at,omitempty"`
	Description  *string    `db:"description" json:"description,omitempty"`
	IPAddress    *string    `db:"ip_address" json:"ip_address,omitempty"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
}

// FraudFlagWithApp is a fraud flag joined with its owning app's name.
type FraudFlagWithApp struct {
	FraudFlag
	AppName string `db:"app_name" json:"app_name"`
}

// Reward is a payable reward owed to a referrer.
type Reward struct {
	ID           uuid.UUID       `db:"id" json:"id"`
	ReferralID   uuid.UUID       `db:"referral_id" json:"referral_id"`
	ConversionID uuid.UUID       `db:"conversion_id" json:"conversion_id"`
	AppID        uuid.UUID       `db:"app_id" json:"app_id"`
	UserID       uuid.UUID       `db:"user_id" json:"user_id"`
	Amount       decimal.Decimal `db:"amount" json:"amount"`
	Currency     string          `db:"currency" json:"currency"`
	Status       string          `db:"status" json:"status"`
	Level        int             `db:"level" json:"level"`
	CreatedAt    time.Time       `db:"created_at" json:"created_at"`
}

// AuditLog is an append-only record of a notable state change.
type AuditLog struct {
	ID        uuid.UUID  `db:"id" json:"id"`
	AccountID *uuid.UUID `db:"account_id" json:"account_id,omitempty"`
	AppID     *uuid.UUID `db:"app_id" json:"app_id,omitempty"`
	Level     string     `db:"level" json:"level"`
	Category  string     `db:"category" json:"category"`
	Message   string     `db:"message" json:"message"`
	Fields    JSONB      `db:"fields" json:"fields,omitempty"`
	CreatedAt time.Time  `db:"created_at" json:"created_at"`
}

// Webhook is a partner endpoint subscribed to event types.
type Webhook struct {
	ID        uuid.UUID  `db:"id" json:"id"`
	AccountID uuid.UUID  `db:"account_id" json:"account_id"`
	AppID     *uuid.UUID `db:"app_id" json:"app_id,omitempty"`

	URL    string      `db:"url" json:"url"`
	Secret string      `db:"secret" json:"-"`
	Events StringArray `db:"events" json:"events"`
	Status string      `db:"status" json:"status"`

	RetryEnabled bool `db:"retry_enabled" json:"retry_enabled"`
	MaxRetries   int  `db:"max_retries" json:"max_retries"`

	TotalSent     int        `db:"total_sent" json:"total_sent"`
	TotalFailed   int        `db:"total_failed" json:"total_failed"`
	LastSuccessAt *time.Time `db:"last_success_at" json:"last_success_at,omitempty"`
	LastFailureAt *time.Time `db:"last_failure_at" json:"last_failure_at,omitempty"`

	CreatedAt time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt time.Time  `db:"updated_at" json:"updated_at"`
	DeletedAt *time.Time `db:"deleted_at" json:"deleted_at,omitempty"`
}

// WebhookDelivery records one delivery attempt of an event to a webhook.
type WebhookDelivery struct {
	ID        uuid.UUID `db:"id" json:"id"`
	WebhookID uuid.UUID `db:"webhook_id" json:"webhook_id"`
	EventType string    `db:"event_type" json:"event_type"`
	Payload   JSONB     `db:"payload" json:"payload"`
	Status    string    `db:"status" json:"status"`

	ResponseStatus *int    `db:"response_status" json:"response_status,omitempty"`
	ResponseBody   *string `db:"response_body" json:"response_body,omitempty"`
	DurationMs     *int    `db:"duration_ms" json:"duration_ms,omitempty"`
	ErrorMessage   *string `db:"error_message" json:"error_message,omitempty"`

	AttemptNumber int        `db:"attempt_number" json:"attempt_number"`
	NextRetryAt   *time.Time `db:"next_retry_at" json:"next_retry_at,omitempty"`

	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
	DeliveredAt *time.Time `db:"delivered_at" json:"delivered_at,omitempty"`
}

package store

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
)

// JSONB is a custom type for JSONB fields
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
	if value == nil {
		*j = nil
		return nil
	}

	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return errors.New("incompatible type for JSONB")
	}

	if len(data) == 0 {
		*j = make(JSONB)
		return nil
	}

	result := make(JSONB)
	if err := json.Unmarshal(data, &result); err != nil {
		return err
	}
	*j = result
	return nil
}

// User is a platform user participating in the referral program
type User struct {
	ID                    uuid.UUID  `db:"id" json:"id"`
	Email                 string     `db:"email" json:"email"`
	FirstName             *string    `db:"first_name" json:"first_name,omitempty"`
	LastName              *string    `db:"last_name" json:"last_name,omitempty"`
	ReferralCode          string     `db:"referral_code" json:"referral_code"`
	ReferredByID          *uuid.UUID `db:"referred_by_id" json:"referred_by_id,omitempty"`
	AffiliateStatus       string     `db:"affiliate_status" json:"affiliate_status"`
	TotalCommissionEarned float64    `db:"total_commission_earned" json:"total_commission_earned"`
	CreatedAt             time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt             time.Time  `db:"updated_at" json:"updated_at"`
}

// Commission is a single entry in a referrer's commission ledger
type Commission struct {
	ID         uuid.UUID  `db:"id" json:"id"`
	ReferrerID uuid.UUID  `db:"referrer_id" json:"referrer_id"`
	FromUserID uuid.UUID  `db:"from_user_id" json:"from_user_id"`
	Amount     float64    `db:"amount" json:"amount"`
	Status     string     `db:"status" json:"status"`
	ApprovedBy *uuid.UUID `db:"approved_by" json:"approved_by,omitempty"`
	Notes      *string    `db:"notes" json:"notes,omitempty"`
	CreatedAt  time.Time  `db:"created_at" json:"created_at"`
	PaidAt     *time.Time `db:"paid_at" json:"paid_at,omitempty"`
	UpdatedAt  time.Time  `db:"updated_at" json:"updated_at"`
}

// Lead is a CRM prospect record, pre-activation
type Lead struct {
	ID              uuid.UUID  `db:"id" json:"id"`
	Email           string     `db:"email" json:"email"`
	FirstName       *string    `db:"first_name" json:"first_name,omitempty"`
	LastName        *string    `db:"last_name" json:"last_name,omitempty"`
	Phone           *string    `db:"phone" json:"phone,omitempty"`
	Status          string     `db:"status" json:"status"`
	ReferralCode    *string    `db:"referral_code" json:"referral_code,omitempty"`
	ActivatedUserID *uuid.UUID `db:"activated_user_id" json:"activated_user_id,omitempty"`
	Notes           *string    `db:"notes" json:"notes,omitempty"`
	Metadata        JSONB      `db:"metadata" json:"metadata,omitempty"`
	CreatedAt       time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time  `db:"updated_at" json:"updated_at"`
	ActivatedAt     *time.Time `db:"activated_at" json:"activated_at,omitempty"`
}

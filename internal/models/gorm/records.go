package gorm

import (
	"time"
)

const AnonymousResponder = "anonymous"

type Account struct {
	ID             uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Email          string    `gorm:"not null;uniqueIndex;size:255" json:"email"`
	PaymentSuccess bool      `gorm:"default:false" json:"paymentSuccess"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// FormRecord owns the schema text exactly as it was produced or last
// overwritten, plus the style chosen in the editor.
type FormRecord struct {
	ID            uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	JSONForm      string    `gorm:"column:jsonform;type:text;not null" json:"jsonform"`
	Theme         string    `json:"theme"`
	Background    string    `json:"background"`
	Style         string    `json:"style"`
	CreatedBy     string    `gorm:"not null;index;size:255" json:"createdBy"`
	EnabledSignIn bool      `gorm:"default:false" json:"enabledSignIn"`
	Version       int       `gorm:"not null;default:1" json:"version"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// ResponseRecord is written once on submission and never updated. It refers
// to its form by id only; no foreign key is declared.
type ResponseRecord struct {
	ID            uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	JSONResponse  string    `gorm:"column:json_response;type:text;not null" json:"jsonResponse"`
	CreatedBy     string    `gorm:"default:anonymous;size:255" json:"createdBy"`
	FormReference uint      `gorm:"not null;index" json:"formReference"`
	CreatedAt     time.Time `json:"createdAt"`
}

// PaymentTransaction tracks a checkout until the gateway reports back.
type PaymentTransaction struct {
	TransactionID string    `gorm:"primaryKey;size:64" json:"transactionId"`
	Email         string    `gorm:"not null;index;size:255" json:"email"`
	Amount        int       `json:"amount"`
	Status        string    `gorm:"default:pending;size:32" json:"status"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

func (Account) TableName() string {
	return "users"
}

func (FormRecord) TableName() string {
	return "json_forms"
}

func (ResponseRecord) TableName() string {
	return "user_responses"
}

func (PaymentTransaction) TableName() string {
	return "payment_transactions"
}

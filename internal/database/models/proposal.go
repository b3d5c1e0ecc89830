package models

import (
	"time"
)

// Proposal is a vendor's structured response to one RFP, extracted from an
// inbound email. FallbackParsed marks proposals parsed by the regex tier
// instead of the AI tier.
type Proposal struct {
	ID             uint       `gorm:"primaryKey" json:"id"`
	RFPID          uint       `gorm:"index;not null" json:"rfp_id"`
	VendorID       uint       `gorm:"index;not null" json:"vendor_id"`
	ExtractedJSON  string     `gorm:"type:text" json:"extracted_json"`
	PriceAmount    float64    `json:"price_amount"`
	PriceCurrency  string     `gorm:"size:10" json:"price_currency"`
	DeliveryDays   int        `json:"delivery_days"`
	PaymentTerms   string     `gorm:"size:255" json:"payment_terms"`
	Warranty       string     `gorm:"size:255" json:"warranty"`
	Summary        string     `gorm:"type:text" json:"summary"`
	AIScore        *float64   `json:"ai_score,omitempty"`
	AIEvaluation   string     `gorm:"type:text" json:"ai_evaluation,omitempty"`
	FallbackParsed bool       `gorm:"default:false" json:"fallback_parsed"`
	Status         string     `gorm:"size:20;index;default:'RECEIVED'" json:"status"`
	ReceivedAt     time.Time  `json:"received_at"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`

	// Relations
	Vendor *Vendor `gorm:"foreignKey:VendorID" json:"vendor,omitempty"`
}

// ProposalStatus represents the evaluation state of a proposal
type ProposalStatus string

const (
	ProposalStatusReceived    ProposalStatus = "RECEIVED"
	ProposalStatusScored      ProposalStatus = "SCORED"
	ProposalStatusShortlisted ProposalStatus = "SHORTLISTED"
	ProposalStatusRejected    ProposalStatus = "REJECTED"
	ProposalStatusAccepted    ProposalStatus = "ACCEPTED"
)

// IsValid checks if the proposal status is valid
func (s ProposalStatus) IsValid() bool {
	switch s {
	case ProposalStatusReceived, ProposalStatusScored, ProposalStatusShortlisted,
		ProposalStatusRejected, ProposalStatusAccepted:
		return true
	}
	return false
}

// CanTransitionTo reports whether a status change is allowed
func (s ProposalStatus) CanTransitionTo(next ProposalStatus) bool {
	switch s {
	case ProposalStatusReceived:
		return next == ProposalStatusScored || next == ProposalStatusRejected
	case ProposalStatusScored:
		return next == ProposalStatusShortlisted || next == ProposalStatusRejected || next == ProposalStatusAccepted
	case ProposalStatusShortlisted:
		return next == ProposalStatusAccepted || next == ProposalStatusRejected
	case ProposalStatusRejected, ProposalStatusAccepted:
		return false
	}
	return false
}

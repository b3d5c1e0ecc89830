package models

import (
	"time"
)

// RFP represents a formal request for proposal structured from a
// natural-language purchase request
type RFP struct {
	ID               uint       `gorm:"primaryKey" json:"id"`
	ReferenceCode    string     `gorm:"uniqueIndex;size:20;not null" json:"reference_code"`
	Title            string     `gorm:"size:255;not null" json:"title"`
	Description      string     `gorm:"type:text" json:"description"`
	RawRequest       string     `gorm:"type:text" json:"raw_request"` // Original natural-language request
	Category         string     `gorm:"size:100" json:"category"`
	BudgetAmount     float64    `json:"budget_amount"`
	BudgetCurrency   string     `gorm:"size:10;default:'USD'" json:"budget_currency"`
	DeadlineAt       *time.Time `json:"deadline_at,omitempty"`
	RequirementsJSON string     `gorm:"type:text" json:"requirements_json"` // JSON array of requirement strings
	Status           string     `gorm:"size:20;index;default:'DRAFT'" json:"status"`
	StructuredBy     string     `gorm:"size:20" json:"structured_by"` // ai, local
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`

	// Relations
	Vendors   []RFPVendor `gorm:"foreignKey:RFPID" json:"vendors,omitempty"`
	Proposals []Proposal  `gorm:"foreignKey:RFPID" json:"proposals,omitempty"`
}

// RFPStatus represents the lifecycle state of an RFP
type RFPStatus string

const (
	RFPStatusDraft      RFPStatus = "DRAFT"
	RFPStatusOpen       RFPStatus = "OPEN"
	RFPStatusEvaluating RFPStatus = "EVALUATING"
	RFPStatusAwarded    RFPStatus = "AWARDED"
	RFPStatusClosed     RFPStatus = "CLOSED"
)

// IsValid checks if the RFP status is valid
func (s RFPStatus) IsValid() bool {
	switch s {
	case RFPStatusDraft, RFPStatusOpen, RFPStatusEvaluating, RFPStatusAwarded, RFPStatusClosed:
		return true
	}
	return false
}

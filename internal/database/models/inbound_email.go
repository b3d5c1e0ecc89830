package models

import (
	"time"
)

// InboundEmail is a raw vendor reply received via the inbound webhook. The
// raw message is always persisted before extraction runs; Processed and
// ProcessingError record the outcome of the pipeline. An inbound email maps
// to at most one proposal.
type InboundEmail struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	ExternalID      string    `gorm:"uniqueIndex;size:255;not null" json:"external_id"`
	FromAddr        string    `gorm:"size:255;index" json:"from"`
	ToAddr          string    `gorm:"size:255" json:"to"`
	Subject         string    `gorm:"size:500" json:"subject"`
	Body            string    `gorm:"type:text" json:"body"`
	HTMLBody        string    `gorm:"type:text" json:"html_body"`
	RawPayload      string    `gorm:"type:text" json:"raw_payload"`
	RFPID           *uint     `gorm:"index" json:"rfp_id,omitempty"`
	VendorID        *uint     `gorm:"index" json:"vendor_id,omitempty"`
	ProposalID      *uint     `gorm:"uniqueIndex" json:"proposal_id,omitempty"`
	Processed       bool      `gorm:"default:false;index" json:"processed"`
	ProcessingError string    `gorm:"type:text" json:"processing_error,omitempty"`
	ReceivedAt      time.Time `json:"received_at"`
	CreatedAt       time.Time `json:"created_at"`

	// Relations
	Proposal *Proposal `gorm:"foreignKey:ProposalID" json:"proposal,omitempty"`
}

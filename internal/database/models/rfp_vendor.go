package models

import (
	"time"
)

// RFPVendor tracks the per-vendor status of an RFP invitation
type RFPVendor struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	RFPID       uint       `gorm:"uniqueIndex:idx_rfp_vendor;not null" json:"rfp_id"`
	VendorID    uint       `gorm:"uniqueIndex:idx_rfp_vendor;not null" json:"vendor_id"`
	Status      string     `gorm:"size:20;index;default:'PENDING'" json:"status"`
	SentAt      *time.Time `json:"sent_at,omitempty"`
	RespondedAt *time.Time `json:"responded_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`

	// Relations
	Vendor *Vendor `gorm:"foreignKey:VendorID" json:"vendor,omitempty"`
}

// RFPVendorStatus represents the invitation state for one vendor on one RFP
type RFPVendorStatus string

const (
	RFPVendorStatusPending   RFPVendorStatus = "PENDING"
	RFPVendorStatusSent      RFPVendorStatus = "SENT"
	RFPVendorStatusResponded RFPVendorStatus = "RESPONDED"
	RFPVendorStatusDeclined  RFPVendorStatus = "DECLINED"
)

// IsValid checks if the invitation status is valid
func (s RFPVendorStatus) IsValid() bool {
	switch s {
	case RFPVendorStatusPending, RFPVendorStatusSent, RFPVendorStatusResponded, RFPVendorStatusDeclined:
		return true
	}
	return false
}

package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// ReturnStatus captures the lifecycle states of a return case.
type ReturnStatus string

const (
	ReturnStatusReported        ReturnStatus = "reported"
	ReturnStatusPickupScheduled ReturnStatus = "pickup_scheduled"
	ReturnStatusPickedUp        ReturnStatus = "picked_up"
	ReturnStatusReceived        ReturnStatus = "received"
	ReturnStatusApproved        ReturnStatus = "approved"
	ReturnStatusResolved        ReturnStatus = "resolved"
)

// Terminal reports whether the status admits no further transitions.
func (s ReturnStatus) Terminal() bool {
	return s == ReturnStatusResolved
}

// EvidenceType enumerates accepted return evidence kinds.
type EvidenceType string

const (
	EvidencePhoto     EvidenceType = "photo"
	EvidenceSignature EvidenceType = "signature"
	EvidenceVideo     EvidenceType = "video"
	EvidenceDocument  EvidenceType = "document"
)

// CommissionImpact describes how a return adjustment affects earned commission.
type CommissionImpact string

const (
	CommissionImpactReverse CommissionImpact = "reverse"
	CommissionImpactNone    CommissionImpact = "none"
	CommissionImpactOther   CommissionImpact = "other"
)

// ReturnCase is a single return claim owned by a shop. Terminal cases are
// retained for audit and never deleted.
type ReturnCase struct {
	ID         string       `db:"id" json:"id"`
	ShopID     string       `db:"shop_id" json:"shop_id"`
	Status     ReturnStatus `db:"status" json:"status"`
	Category   *string      `db:"category" json:"category,omitempty"`
	PickedAt   *time.Time   `db:"picked_at" json:"picked_at,omitempty"`
	ApprovedBy *string      `db:"approved_by" json:"approved_by,omitempty"`
	Resolution *string      `db:"resolution" json:"resolution,omitempty"`
	CreatedAt  time.Time    `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time    `db:"updated_at" json:"updated_at"`
}

// ReturnEvidence is an append-only evidence record attached to a case.
type ReturnEvidence struct {
	ID           string       `db:"id" json:"id"`
	ReturnCaseID string       `db:"return_case_id" json:"return_case_id"`
	Type         EvidenceType `db:"type" json:"type"`
	URI          string       `db:"uri" json:"uri"`
	ContentHash  string       `db:"content_hash" json:"content_hash"`
	TakenBy      string       `db:"taken_by" json:"taken_by"`
	TakenAt      time.Time    `db:"taken_at" json:"taken_at"`
	Geo          *string      `db:"geo" json:"geo,omitempty"`
}

// ReturnPickup records a scheduled carrier pickup for a case.
type ReturnPickup struct {
	ID           string    `db:"id" json:"id"`
	ReturnCaseID string    `db:"return_case_id" json:"return_case_id"`
	ScheduledAt  time.Time `db:"scheduled_at" json:"scheduled_at"`
	Carrier      string    `db:"carrier" json:"carrier"`
	Tracking     *string   `db:"tracking" json:"tracking,omitempty"`
	AssignedTo   string    `db:"assigned_to" json:"assigned_to"`
	Notes        *string   `db:"notes" json:"notes,omitempty"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// ReturnAdjustment is created when a resolution carries a refund or
// commission impact.
type ReturnAdjustment struct {
	ID               string           `db:"id" json:"id"`
	ReturnCaseID     string           `db:"return_case_id" json:"return_case_id"`
	OrderItemID      string           `db:"order_item_id" json:"order_item_id"`
	Amount           decimal.Decimal  `db:"amount" json:"amount"`
	CommissionImpact CommissionImpact `db:"commission_impact" json:"commission_impact"`
	Notes            *string          `db:"notes" json:"notes,omitempty"`
	CreatedAt        time.Time        `db:"created_at" json:"created_at"`
}

// ReturnFilter constrains return case listing queries.
type ReturnFilter struct {
	ShopID   string
	Status   []ReturnStatus
	Category string
	Page     int
	PageSize int
}

// ReturnDetail aggregates a case with its child records.
type ReturnDetail struct {
	Case        ReturnCase         `json:"case"`
	Evidence    []ReturnEvidence   `json:"evidence"`
	Pickup      *ReturnPickup      `json:"pickup,omitempty"`
	Adjustments []ReturnAdjustment `json:"adjustments"`
}

package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/noah-isme/mkt-backoffice-api/internal/models"
)

// CreateReturnRequest opens a new return case in the reported state.
type CreateReturnRequest struct {
	ShopID   string  `json:"shop_id" validate:"required"`
	Category *string `json:"category,omitempty"`
}

// TransitionReturnRequest asks for a plain status transition.
type TransitionReturnRequest struct {
	Target models.ReturnStatus `json:"target" validate:"required"`
}

// EvidenceInput is one evidence record captured in the field.
type EvidenceInput struct {
	Type        models.EvidenceType `json:"type" validate:"required,oneof=photo signature video document"`
	URI         string              `json:"uri" validate:"required"`
	ContentHash string              `json:"content_hash"`
	Geo         *string             `json:"geo,omitempty"`
}

// PickReturnRequest marks an immediate pickup (reported -> picked_up) with
// optional evidence captured on the spot.
type PickReturnRequest struct {
	Evidence []EvidenceInput `json:"evidence" validate:"dive"`
}

// SchedulePickupRequest schedules a carrier pickup.
type SchedulePickupRequest struct {
	ScheduledAt time.Time `json:"scheduled_at" validate:"required"`
	Carrier     string    `json:"carrier" validate:"required"`
	AssignedTo  string    `json:"assigned_to" validate:"required"`
	Tracking    *string   `json:"tracking,omitempty"`
	Notes       *string   `json:"notes,omitempty"`
}

// SubmitEvidenceRequest appends evidence to an in-flight case.
type SubmitEvidenceRequest struct {
	Evidence []EvidenceInput `json:"evidence" validate:"required,min=1,dive"`
}

// ResolveReturnRequest closes a case. OrderItemID and Amount together create
// a return adjustment; CommissionImpact defaults to reverse.
type ResolveReturnRequest struct {
	Resolution       string                   `json:"resolution" validate:"required"`
	OrderItemID      *string                  `json:"order_item_id,omitempty"`
	Amount           *decimal.Decimal         `json:"amount,omitempty"`
	CommissionImpact *models.CommissionImpact `json:"commission_impact,omitempty"`
	Notes            *string                  `json:"notes,omitempty"`
}

// TransitionResult reports the outcome of a requested transition. A guard
// rejection is a normal result, not an error.
type TransitionResult struct {
	OK     bool                `json:"ok"`
	Status models.ReturnStatus `json:"status"`
	Reason string              `json:"reason,omitempty"`
}

// SchedulePickupResult reports the created pickup.
type SchedulePickupResult struct {
	OK       bool                `json:"ok"`
	PickupID string              `json:"pickup_id"`
	Status   models.ReturnStatus `json:"status"`
}

// ResolveResult reports the resolution outcome.
type ResolveResult struct {
	OK           bool                `json:"ok"`
	Status       models.ReturnStatus `json:"status"`
	AdjustmentID *string             `json:"adjustment_id,omitempty"`
	Reason       string              `json:"reason,omitempty"`
}

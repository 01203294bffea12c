package models

import "time"

// AuditAction constants represent actions to be logged.
const (
	AuditActionLogin                = "LOGIN"
	AuditActionReturnTransition     = "RETURN_TRANSITION"
	AuditActionReturnPick           = "RETURN_PICK"
	AuditActionReturnPickup         = "RETURN_PICKUP"
	AuditActionReturnResolve        = "RESOLVE"
	AuditActionRuleCreate           = "COMMISSION_RULE_CREATE"
	AuditActionRecomputeCommissions = "RECOMPUTE_COMMISSIONS"
	AuditActionRecomputeProfit      = "RECOMPUTE_PROFIT"
	AuditActionExportEarnings       = "EXPORT_EARNINGS"
	AuditActionExportProfit         = "EXPORT_PROFIT"
)

// AuditLog represents an append-only audit trail record.
type AuditLog struct {
	ID         string    `db:"id" json:"id"`
	UserID     *string   `db:"user_id" json:"user_id,omitempty"`
	Action     string    `db:"action" json:"action"`
	Resource   string    `db:"resource" json:"resource"`
	ResourceID *string   `db:"resource_id" json:"resource_id,omitempty"`
	OldValues  []byte    `db:"old_values" json:"old_values,omitempty"`
	NewValues  []byte    `db:"new_values" json:"new_values,omitempty"`
	IPAddress  string    `db:"ip_address" json:"ip_address"`
	UserAgent  string    `db:"user_agent" json:"user_agent"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

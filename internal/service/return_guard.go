package service

import (
	"fmt"

	"github.com/noah-isme/mkt-backoffice-api/internal/models"
	"github.com/noah-isme/mkt-backoffice-api/internal/policy"
)

// GuardContext carries everything the transition guard consults. All fields
// are optional; missing evidence or policy simply means nothing to check.
type GuardContext struct {
	Role     models.UserRole
	Evidence []models.EvidenceType
	Category string
	Policy   policy.EvidencePolicy
	Received bool
}

// GuardResult is the guard's decision. Rejections are expected outcomes of
// racing UI actions, not errors.
type GuardResult struct {
	OK     bool   `json:"ok"`
	Reason string `json:"reason,omitempty"`
}

func rejected(format string, args ...interface{}) GuardResult {
	return GuardResult{Reason: fmt.Sprintf(format, args...)}
}

// returnEdges is the directed transition graph. Status progression is
// monotonic: nothing here leads back to an earlier non-terminal state.
var returnEdges = map[models.ReturnStatus][]models.ReturnStatus{
	models.ReturnStatusReported: {
		models.ReturnStatusPickupScheduled,
		models.ReturnStatusPickedUp,
	},
	models.ReturnStatusPickupScheduled: {models.ReturnStatusPickedUp},
	models.ReturnStatusPickedUp:        {models.ReturnStatusReceived},
	models.ReturnStatusReceived: {
		models.ReturnStatusApproved,
		models.ReturnStatusResolved,
	},
	models.ReturnStatusApproved: {models.ReturnStatusResolved},
}

// minRoleFor is the least privileged role allowed to request each target
// status. Attendants handle pickup legwork; receiving and approval need a
// supervisor; resolution is admin-only.
var minRoleFor = map[models.ReturnStatus]models.UserRole{
	models.ReturnStatusPickupScheduled: models.RoleAttendant,
	models.ReturnStatusPickedUp:        models.RoleAttendant,
	models.ReturnStatusReceived:        models.RoleSupervisor,
	models.ReturnStatusApproved:        models.RoleSupervisor,
	models.ReturnStatusResolved:        models.RoleAdmin,
}

// evidenceGated marks states whose entry requires the category's evidence
// policy to be satisfied (received and everything past it).
var evidenceGated = map[models.ReturnStatus]bool{
	models.ReturnStatusReceived: true,
	models.ReturnStatusApproved: true,
	models.ReturnStatusResolved: true,
}

// evidenceCheckOrder fixes which unmet type a rejection names first.
var evidenceCheckOrder = []models.EvidenceType{
	models.EvidencePhoto,
	models.EvidenceSignature,
	models.EvidenceVideo,
	models.EvidenceDocument,
}

// GuardTransition validates a requested status transition. It is a pure
// decision function with no side effects; callers apply the transition
// transactionally only on OK.
func GuardTransition(current, target models.ReturnStatus, ctx GuardContext) GuardResult {
	if !edgeAllowed(current, target) {
		return rejected("invalid transition: %s -> %s", current, target)
	}

	if required, ok := minRoleFor[target]; ok && !ctx.Role.AtLeast(required) {
		return rejected("role %s cannot set status %s (requires %s)", ctx.Role, target, required)
	}

	if evidenceGated[target] {
		if result := checkEvidence(ctx); !result.OK {
			return result
		}
	}

	// Resolution always requires having passed through received, which the
	// caller asserts via the context hint.
	if target == models.ReturnStatusResolved && !ctx.Received {
		return rejected("cannot resolve a return that was never received")
	}

	return GuardResult{OK: true}
}

func edgeAllowed(current, target models.ReturnStatus) bool {
	for _, next := range returnEdges[current] {
		if next == target {
			return true
		}
	}
	return false
}

func checkEvidence(ctx GuardContext) GuardResult {
	if len(ctx.Policy) == 0 {
		return GuardResult{OK: true}
	}

	counts := make(map[models.EvidenceType]int, len(ctx.Evidence))
	for _, evidenceType := range ctx.Evidence {
		counts[evidenceType]++
	}

	for _, evidenceType := range evidenceCheckOrder {
		required := ctx.Policy[evidenceType]
		if required <= 0 {
			continue
		}
		if have := counts[evidenceType]; have < required {
			return rejected("insufficient evidence: %s requires %d, have %d", evidenceType, required, have)
		}
	}
	return GuardResult{OK: true}
}

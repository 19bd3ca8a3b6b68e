package service

import (
	"errors"
	"fmt"
	"strings"

	"github.com/alirazi1992/helpdesk-backend/internal/repo"
)

var (
	// ErrNoApplicableRule means no enabled rule's conditions match the ticket.
	ErrNoApplicableRule = errors.New("no applicable assignment rule")

	// ErrNoEligibleTechnician means the candidate pool is empty even after
	// the least-busy fallback.
	ErrNoEligibleTechnician = errors.New("no eligible technician")

	// ErrDuplicateRuleID means a rule update would collide with an existing id.
	ErrDuplicateRuleID = repo.ErrDuplicateID
)

// InvalidRuleError reports criteria weights outside [0,100]. Validation
// happens before any rule-set mutation.
type InvalidRuleError struct {
	RuleID string
	Fields []string
}

func (e *InvalidRuleError) Error() string {
	return fmt.Sprintf("invalid rule %q: weights out of range for %s", e.RuleID, strings.Join(e.Fields, ", "))
}

// ReasonCode maps an engine failure to the stable code reported to callers.
func ReasonCode(err error) string {
	var invalid *InvalidRuleError
	switch {
	case errors.Is(err, ErrNoApplicableRule):
		return "NO_APPLICABLE_RULE"
	case errors.Is(err, ErrNoEligibleTechnician):
		return "NO_ELIGIBLE_TECHNICIAN"
	case errors.Is(err, ErrDuplicateRuleID):
		return "DUPLICATE_RULE_ID"
	case errors.As(err, &invalid):
		return "INVALID_RULE"
	default:
		return "INTERNAL"
	}
}

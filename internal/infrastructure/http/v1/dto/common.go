// Package dto provides Data Transfer Objects for API requests/responses.
package dto

import (
	"storehouse/internal/core/id"
)

// parseID converts an id already checked by the "uuid" binding rule.
func parseID(s string) id.ID {
	v, _ := id.Parse(s)
	return v
}

func parseOptionalID(s *string) *id.ID {
	if s == nil || *s == "" {
		return nil
	}
	v := parseID(*s)
	return &v
}

func formatOptionalID(v *id.ID) *string {
	if v == nil {
		return nil
	}
	s := v.String()
	return &s
}

// DecisionRequest approves or rejects a pending receipt.
type DecisionRequest struct {
	ApprovedBy string `json:"approved_by" binding:"required,uuid"`
}

// Approver returns the deciding user.
func (r *DecisionRequest) Approver() id.ID {
	return parseID(r.ApprovedBy)
}

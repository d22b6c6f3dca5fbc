// Package access resolves what a caller may do inside a group.
package access

import (
	"context"
	"errors"

	"github.com/mmynk/fintrack/internal/apperr"
	"github.com/mmynk/fintrack/internal/models"
	"github.com/mmynk/fintrack/internal/storage"
)

// MembershipReader is the slice of the store the checker needs.
type MembershipReader interface {
	GetMembership(ctx context.Context, groupID, userID string) (*models.Member, error)
}

// Checker answers membership and role questions. It never writes.
type Checker struct {
	members MembershipReader
}

// NewChecker creates a Checker backed by members.
func NewChecker(members MembershipReader) *Checker {
	return &Checker{members: members}
}

// Role returns the caller's role in the group.
// A caller without a membership row gets a Forbidden error.
func (c *Checker) Role(ctx context.Context, groupID, callerID string) (models.Role, error) {
	if groupID == "" || callerID == "" {
		return "", apperr.BadRequest("group id and caller id are required")
	}

	m, err := c.members.GetMembership(ctx, groupID, callerID)
	if errors.Is(err, storage.ErrNotFound) {
		return "", apperr.Forbidden("You are not a member of this group")
	}
	if err != nil {
		return "", apperr.Persistence("failed to look up membership", err)
	}
	return m.Role, nil
}

// RequireMember succeeds for any role and returns it.
func (c *Checker) RequireMember(ctx context.Context, groupID, callerID string) (models.Role, error) {
	return c.Role(ctx, groupID, callerID)
}

// RequireAdmin succeeds only for admins.
func (c *Checker) RequireAdmin(ctx context.Context, groupID, callerID string) error {
	role, err := c.Role(ctx, groupID, callerID)
	if err != nil {
		return err
	}
	if role != models.RoleAdmin {
		return apperr.Forbidden("Only group admins can perform this action")
	}
	return nil
}

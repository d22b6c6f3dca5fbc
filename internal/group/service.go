// Package group manages groups and their memberships.
package group

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/mmynk/fintrack/internal/access"
	"github.com/mmynk/fintrack/internal/apperr"
	"github.com/mmynk/fintrack/internal/models"
	"github.com/mmynk/fintrack/internal/storage"
)

const maxNameLength = 100

// Store is the persistence surface the group service depends on.
type Store interface {
	storage.GroupStore
	GetUserByID(ctx context.Context, id string) (*models.User, error)
}

// Service implements group and membership operations.
type Service struct {
	store  Store
	access *access.Checker
}

// NewService creates a new group service.
func NewService(store Store) *Service {
	return &Service{
		store:  store,
		access: access.NewChecker(store),
	}
}

// Create creates a group with the caller as its only member and admin.
func (s *Service) Create(ctx context.Context, callerID, name string) (*models.Group, error) {
	slog.Info("CreateGroup request received", "caller_id", callerID, "name", name)

	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperr.BadRequest("group name is required")
	}
	if len(name) > maxNameLength {
		return nil, apperr.BadRequest("group name is too long")
	}

	group := &models.Group{
		Name:      name,
		CreatedBy: callerID,
		Members:   []models.Member{{UserID: callerID, Role: models.RoleAdmin}},
	}
	if err := s.store.CreateGroup(ctx, group); err != nil {
		slog.Error("CreateGroup failed", "error", err)
		return nil, apperr.Persistence("failed to create group", err)
	}

	slog.Info("Group created", "group_id", group.ID)
	return group, nil
}

// Get returns a group with its members. Only members may see it.
func (s *Service) Get(ctx context.Context, groupID, callerID string) (*models.Group, error) {
	if _, err := s.access.RequireMember(ctx, groupID, callerID); err != nil {
		return nil, err
	}

	group, err := s.store.GetGroup(ctx, groupID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, apperr.NotFound("Group not found")
	}
	if err != nil {
		slog.Error("GetGroup failed", "group_id", groupID, "error", err)
		return nil, apperr.Persistence("failed to load group", err)
	}
	return group, nil
}

// ListForUser returns the groups the caller belongs to.
func (s *Service) ListForUser(ctx context.Context, callerID string) ([]*models.Group, error) {
	groups, err := s.store.ListGroupsForUser(ctx, callerID)
	if err != nil {
		slog.Error("ListGroups failed", "caller_id", callerID, "error", err)
		return nil, apperr.Persistence("failed to list groups", err)
	}
	return groups, nil
}

// AddMember adds an existing user to the group. Admin only.
// An empty role means member.
func (s *Service) AddMember(ctx context.Context, groupID, callerID, userID string, role models.Role) (*models.Member, error) {
	slog.Info("AddMember request received", "group_id", groupID, "caller_id", callerID, "user_id", userID)

	if role == "" {
		role = models.RoleMember
	}
	if !role.Valid() {
		return nil, apperr.BadRequest("role must be admin or member")
	}
	if userID == "" {
		return nil, apperr.BadRequest("user id is required")
	}
	if err := s.access.RequireAdmin(ctx, groupID, callerID); err != nil {
		return nil, err
	}

	if _, err := s.store.GetUserByID(ctx, userID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, apperr.NotFound("User not found")
		}
		slog.Error("AddMember failed - user lookup", "user_id", userID, "error", err)
		return nil, apperr.Persistence("failed to look up user", err)
	}

	member := models.Member{UserID: userID, Role: role}
	err := s.store.AddMember(ctx, groupID, member)
	switch {
	case errors.Is(err, storage.ErrDuplicate):
		return nil, apperr.Conflict("User is already a member of this group")
	case errors.Is(err, storage.ErrNotFound):
		return nil, apperr.NotFound("Group not found")
	case err != nil:
		slog.Error("AddMember failed", "group_id", groupID, "error", err)
		return nil, apperr.Persistence("failed to add member", err)
	}

	added, err := s.store.GetMembership(ctx, groupID, userID)
	if err != nil {
		slog.Error("Failed to fetch added member", "group_id", groupID, "error", err)
		return nil, apperr.Persistence("failed to load member", err)
	}

	slog.Info("Member added", "group_id", groupID, "user_id", userID, "role", string(role))
	return added, nil
}

// ChangeRole sets a member's role. Admin only. The last admin cannot be
// demoted.
func (s *Service) ChangeRole(ctx context.Context, groupID, callerID, userID string, role models.Role) (*models.Member, error) {
	slog.Info("ChangeRole request received", "group_id", groupID, "caller_id", callerID, "user_id", userID, "role", string(role))

	if !role.Valid() {
		return nil, apperr.BadRequest("role must be admin or member")
	}
	if err := s.access.RequireAdmin(ctx, groupID, callerID); err != nil {
		return nil, err
	}

	target, members, err := s.member(ctx, groupID, userID)
	if err != nil {
		return nil, err
	}
	if target.Role == role {
		return target, nil
	}
	if target.Role == models.RoleAdmin && models.AdminCount(members) == 1 {
		return nil, apperr.InvalidState("A group must keep at least one admin")
	}

	if err := s.store.UpdateMemberRole(ctx, groupID, userID, role); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, apperr.NotFound("Member not found")
		}
		slog.Error("ChangeRole failed", "group_id", groupID, "error", err)
		return nil, apperr.Persistence("failed to update member", err)
	}

	target.Role = role
	slog.Info("Member role changed", "group_id", groupID, "user_id", userID, "role", string(role))
	return target, nil
}

// RemoveMember removes userID from the group. Members may remove themselves;
// removing anyone else requires admin. The last admin cannot leave.
func (s *Service) RemoveMember(ctx context.Context, groupID, callerID, userID string) error {
	slog.Info("RemoveMember request received", "group_id", groupID, "caller_id", callerID, "user_id", userID)

	if callerID == userID {
		if _, err := s.access.RequireMember(ctx, groupID, callerID); err != nil {
			return err
		}
	} else if err := s.access.RequireAdmin(ctx, groupID, callerID); err != nil {
		return err
	}

	target, members, err := s.member(ctx, groupID, userID)
	if err != nil {
		return err
	}
	if target.Role == models.RoleAdmin && models.AdminCount(members) == 1 {
		return apperr.InvalidState("A group must keep at least one admin")
	}

	if err := s.store.RemoveMember(ctx, groupID, userID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return apperr.NotFound("Member not found")
		}
		slog.Error("RemoveMember failed", "group_id", groupID, "error", err)
		return apperr.Persistence("failed to remove member", err)
	}

	slog.Info("Member removed", "group_id", groupID, "user_id", userID)
	return nil
}

// member finds userID among the group's members and returns the full list
// alongside it.
func (s *Service) member(ctx context.Context, groupID, userID string) (*models.Member, []models.Member, error) {
	members, err := s.store.ListMembers(ctx, groupID)
	if err != nil {
		slog.Error("ListMembers failed", "group_id", groupID, "error", err)
		return nil, nil, apperr.Persistence("failed to list members", err)
	}
	for i := range members {
		if members[i].UserID == userID {
			m := members[i]
			return &m, members, nil
		}
	}
	return nil, nil, apperr.NotFound("Member not found")
}

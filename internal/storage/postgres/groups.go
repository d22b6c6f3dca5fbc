package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/mmynk/fintrack/internal/models"
	"github.com/mmynk/fintrack/internal/storage"
)

// CreateGroup persists a group and its initial members in one transaction.
func (s *Store) CreateGroup(ctx context.Context, group *models.Group) error {
	if group.ID == "" {
		group.ID = uuid.New().String()
	}
	if group.CreatedAt.IsZero() {
		group.CreatedAt = time.Now().UTC()
	}

	return s.inTx(ctx, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx,
			`INSERT INTO groups (id, name, created_by, created_at) VALUES ($1, $2, $3, $4)`,
			group.ID, group.Name, group.CreatedBy, group.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to insert group: %w", err)
		}

		batch := &pgx.Batch{}
		for i := range group.Members {
			m := &group.Members[i]
			if m.JoinedAt.IsZero() {
				m.JoinedAt = group.CreatedAt
			}
			batch.Queue(
				`INSERT INTO group_members (group_id, user_id, role, joined_at) VALUES ($1, $2, $3, $4)`,
				group.ID, m.UserID, string(m.Role), m.JoinedAt,
			)
		}
		if batch.Len() == 0 {
			return nil
		}
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("failed to insert group members: %w", err)
		}
		return nil
	})
}

// GetGroup retrieves a group with its members.
func (s *Store) GetGroup(ctx context.Context, groupID string) (*models.Group, error) {
	group := &models.Group{}
	err := s.pool.QueryRow(ctx,
		`SELECT id, name, created_by, created_at FROM groups WHERE id = $1`,
		groupID,
	).Scan(&group.ID, &group.Name, &group.CreatedBy, &group.CreatedAt)
	if err != nil {
		return nil, notFound(err, "group", groupID)
	}

	if group.Members, err = s.ListMembers(ctx, groupID); err != nil {
		return nil, err
	}
	return group, nil
}

// ListGroupsForUser returns the groups a user belongs to, newest first.
func (s *Store) ListGroupsForUser(ctx context.Context, userID string) ([]*models.Group, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT g.id, g.name, g.created_by, g.created_at
		 FROM groups g
		 JOIN group_members m ON m.group_id = g.id
		 WHERE m.user_id = $1
		 ORDER BY g.created_at DESC, g.id`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list groups: %w", err)
	}

	groups, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*models.Group, error) {
		g := &models.Group{}
		err := row.Scan(&g.ID, &g.Name, &g.CreatedBy, &g.CreatedAt)
		return g, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan groups: %w", err)
	}

	for _, g := range groups {
		if g.Members, err = s.ListMembers(ctx, g.ID); err != nil {
			return nil, err
		}
	}
	return groups, nil
}

// GetMembership returns one membership row.
func (s *Store) GetMembership(ctx context.Context, groupID, userID string) (*models.Member, error) {
	m := &models.Member{}
	var role string
	err := s.pool.QueryRow(ctx,
		`SELECT user_id, role, joined_at FROM group_members WHERE group_id = $1 AND user_id = $2`,
		groupID, userID,
	).Scan(&m.UserID, &role, &m.JoinedAt)
	if err != nil {
		return nil, notFound(err, "membership", groupID+"/"+userID)
	}
	m.Role = models.Role(role)
	return m, nil
}

// ListMembers returns a group's members ordered by user ID.
func (s *Store) ListMembers(ctx context.Context, groupID string) ([]models.Member, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT user_id, role, joined_at FROM group_members WHERE group_id = $1 ORDER BY user_id`,
		groupID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get group members: %w", err)
	}

	members, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.Member, error) {
		var m models.Member
		var role string
		err := row.Scan(&m.UserID, &role, &m.JoinedAt)
		m.Role = models.Role(role)
		return m, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan members: %w", err)
	}
	return members, nil
}

// AddMember inserts a membership row.
func (s *Store) AddMember(ctx context.Context, groupID string, member models.Member) error {
	if member.JoinedAt.IsZero() {
		member.JoinedAt = time.Now().UTC()
	}

	_, err := s.pool.Exec(ctx,
		`INSERT INTO group_members (group_id, user_id, role, joined_at) VALUES ($1, $2, $3, $4)`,
		groupID, member.UserID, string(member.Role), member.JoinedAt,
	)
	switch pgCode(err) {
	case codeUniqueViolation:
		return fmt.Errorf("member %s: %w", member.UserID, storage.ErrDuplicate)
	case codeForeignKeyViolation:
		return fmt.Errorf("group %s or user %s: %w", groupID, member.UserID, storage.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("failed to add member: %w", err)
	}
	return nil
}

// UpdateMemberRole changes a member's role.
func (s *Store) UpdateMemberRole(ctx context.Context, groupID, userID string, role models.Role) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE group_members SET role = $1 WHERE group_id = $2 AND user_id = $3`,
		string(role), groupID, userID,
	)
	if err != nil {
		return fmt.Errorf("failed to update member role: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("membership %s/%s: %w", groupID, userID, storage.ErrNotFound)
	}
	return nil
}

// RemoveMember deletes a membership row.
func (s *Store) RemoveMember(ctx context.Context, groupID, userID string) error {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM group_members WHERE group_id = $1 AND user_id = $2`,
		groupID, userID,
	)
	if err != nil {
		return fmt.Errorf("failed to remove member: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("membership %s/%s: %w", groupID, userID, storage.ErrNotFound)
	}
	return nil
}

package proposal

import (
	"context"
	"fmt"
	"strings"

	"github.com/mmynk/fintrack/internal/apperr"
	"github.com/mmynk/fintrack/internal/models"
	"github.com/mmynk/fintrack/internal/storage"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// ListFilter holds the raw list parameters from a request.
type ListFilter struct {
	// Status is empty or one of pending, approved, rejected.
	Status string

	// Page is zero-based. Negative values are treated as 0.
	Page int

	// Size defaults to DefaultPageSize and is capped at MaxPageSize.
	Size int

	// Sort is "field" or "field,asc|desc" with field one of created_at,
	// updated_at or status (camelCase accepted). Default "created_at,desc".
	Sort string
}

// Page is one page of proposals.
type Page struct {
	Content       []*models.ProposalListing
	Number        int
	Size          int
	TotalElements int
	TotalPages    int
}

// List returns a page of a group's proposals, each with its transaction
// summary. The caller must be a group member.
func (e *Engine) List(ctx context.Context, groupID, callerID string, filter ListFilter) (*Page, error) {
	if _, err := e.auth.RequireMember(ctx, groupID, callerID); err != nil {
		return nil, err
	}

	q, err := buildQuery(groupID, filter)
	if err != nil {
		return nil, err
	}

	listings, total, err := e.store.ListProposals(ctx, q)
	if err != nil {
		e.logger.Error("Failed to list proposals", "group_id", groupID, "error", err)
		return nil, apperr.Persistence("failed to list proposals", err)
	}

	return &Page{
		Content:       listings,
		Number:        q.Offset / q.Limit,
		Size:          q.Limit,
		TotalElements: total,
		TotalPages:    (total + q.Limit - 1) / q.Limit,
	}, nil
}

func buildQuery(groupID string, filter ListFilter) (storage.ProposalQuery, error) {
	q := storage.ProposalQuery{GroupID: groupID}

	if filter.Status != "" {
		status, err := models.ParseProposalStatus(strings.ToLower(filter.Status))
		if err != nil {
			return q, apperr.BadRequest(fmt.Sprintf("invalid status %q: must be pending, approved or rejected", filter.Status))
		}
		q.Status = status
	}

	field, desc, err := parseSort(filter.Sort)
	if err != nil {
		return q, err
	}
	q.SortField = field
	q.Descending = desc

	size := filter.Size
	switch {
	case size <= 0:
		size = DefaultPageSize
	case size > MaxPageSize:
		size = MaxPageSize
	}
	page := filter.Page
	if page < 0 {
		page = 0
	}
	q.Limit = size
	q.Offset = page * size

	return q, nil
}

var sortAliases = map[string]storage.SortField{
	"created_at": storage.SortByCreatedAt,
	"createdat":  storage.SortByCreatedAt,
	"updated_at": storage.SortByUpdatedAt,
	"updatedat":  storage.SortByUpdatedAt,
	"status":     storage.SortByStatus,
}

// parseSort reads "field[,direction]". The direction defaults to descending.
func parseSort(raw string) (storage.SortField, bool, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return storage.SortByCreatedAt, true, nil
	}

	name, dir, _ := strings.Cut(raw, ",")
	field, ok := sortAliases[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return "", false, apperr.BadRequest(fmt.Sprintf("invalid sort field %q", name))
	}

	switch strings.ToLower(strings.TrimSpace(dir)) {
	case "", "desc":
		return field, true, nil
	case "asc":
		return field, false, nil
	default:
		return "", false, apperr.BadRequest(fmt.Sprintf("invalid sort direction %q", dir))
	}
}

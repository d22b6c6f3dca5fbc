package proposal

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mmynk/fintrack/internal/models"
	"github.com/mmynk/fintrack/internal/storage"
)

// memStore is an in-memory Store with the same conditional-transition
// semantics as the SQL stores.
type memStore struct {
	mu        sync.Mutex
	proposals map[string]*models.SplitProposal
	debts     map[string][]*models.MemberDebt
	txns      map[string]*models.Transaction
	members   map[string][]models.Member

	// approveErr makes ApproveProposal fail before writing anything.
	approveErr error

	// readBarrier, when set, holds every GetProposal caller until all of
	// them have read, so concurrent callers see the same pending row.
	readBarrier *sync.WaitGroup
}

func newMemStore() *memStore {
	return &memStore{
		proposals: map[string]*models.SplitProposal{},
		debts:     map[string][]*models.MemberDebt{},
		txns:      map[string]*models.Transaction{},
		members:   map[string][]models.Member{},
	}
}

func (m *memStore) addMember(groupID, userID string, role models.Role) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.members[groupID] = append(m.members[groupID], models.Member{UserID: userID, Role: role})
}

func (m *memStore) addTransaction(txn *models.Transaction) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.txns[txn.ID] = txn
}

func (m *memStore) addProposal(p *models.SplitProposal) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *p
	m.proposals[p.ID] = &cp
}

func (m *memStore) status(id string) models.ProposalStatus {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.proposals[id].Status
}

func (m *memStore) debtsFor(id string) []*models.MemberDebt {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*models.MemberDebt(nil), m.debts[id]...)
}

func (m *memStore) GetMembership(_ context.Context, groupID, userID string) (*models.Member, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, mem := range m.members[groupID] {
		if mem.UserID == userID {
			cp := mem
			return &cp, nil
		}
	}
	return nil, fmt.Errorf("membership %s/%s: %w", groupID, userID, storage.ErrNotFound)
}

func (m *memStore) ListMembers(_ context.Context, groupID string) ([]models.Member, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]models.Member(nil), m.members[groupID]...), nil
}

func (m *memStore) GetTransaction(_ context.Context, id string) (*models.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	txn, ok := m.txns[id]
	if !ok {
		return nil, fmt.Errorf("transaction %s: %w", id, storage.ErrNotFound)
	}
	cp := *txn
	return &cp, nil
}

func (m *memStore) CreateProposal(_ context.Context, p *models.SplitProposal) error {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	m.addProposal(p)
	return nil
}

func (m *memStore) GetProposal(_ context.Context, id string) (*models.SplitProposal, error) {
	m.mu.Lock()
	p, ok := m.proposals[id]
	var cp models.SplitProposal
	if ok {
		cp = *p
	}
	barrier := m.readBarrier
	m.mu.Unlock()

	if barrier != nil {
		barrier.Done()
		barrier.Wait()
	}
	if !ok {
		return nil, fmt.Errorf("proposal %s: %w", id, storage.ErrNotFound)
	}
	return &cp, nil
}

func (m *memStore) ListProposals(_ context.Context, q storage.ProposalQuery) ([]*models.ProposalListing, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var matched []*models.SplitProposal
	for _, p := range m.proposals {
		if p.GroupID != q.GroupID {
			continue
		}
		if q.Status != "" && p.Status != q.Status {
			continue
		}
		matched = append(matched, p)
	}

	key := func(p *models.SplitProposal) string {
		switch q.SortField {
		case storage.SortByUpdatedAt:
			return p.UpdatedAt.Format(time.RFC3339Nano)
		case storage.SortByStatus:
			return string(p.Status)
		default:
			return p.CreatedAt.Format(time.RFC3339Nano)
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		ki, kj := key(matched[i]), key(matched[j])
		if ki == kj {
			ki, kj = matched[i].ID, matched[j].ID
		}
		if q.Descending {
			return ki > kj
		}
		return ki < kj
	})

	total := len(matched)
	start := q.Offset
	if start > total {
		start = total
	}
	end := total
	if q.Limit > 0 && start+q.Limit < end {
		end = start + q.Limit
	}

	listings := []*models.ProposalListing{}
	for _, p := range matched[start:end] {
		l := &models.ProposalListing{Proposal: *p}
		if txn, ok := m.txns[p.TransactionID]; ok {
			l.Transaction = txn.Summary()
		}
		listings = append(listings, l)
	}
	return listings, total, nil
}

func (m *memStore) ApproveProposal(_ context.Context, id string, debts []*models.MemberDebt, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.approveErr != nil {
		return m.approveErr
	}
	p, ok := m.proposals[id]
	if !ok || p.Status != models.ProposalPending {
		return fmt.Errorf("proposal %s: %w", id, storage.ErrConflict)
	}
	for _, d := range debts {
		if d.ID == "" {
			d.ID = uuid.New().String()
		}
		d.ProposalID = id
	}
	m.debts[id] = append(m.debts[id], debts...)
	p.Status = models.ProposalApproved
	p.UpdatedAt = at
	return nil
}

func (m *memStore) RejectProposal(_ context.Context, id string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.proposals[id]
	if !ok || p.Status != models.ProposalPending {
		return fmt.Errorf("proposal %s: %w", id, storage.ErrConflict)
	}
	p.Status = models.ProposalRejected
	p.UpdatedAt = at
	return nil
}

func (m *memStore) ListDebtsByProposal(_ context.Context, proposalID string) ([]*models.MemberDebt, error) {
	return m.debtsFor(proposalID), nil
}

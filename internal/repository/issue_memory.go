package repository

import (
	"context"
	"sync"

	"github.com/spec-kit/civic-intake/internal/domain"
)

type memoryIssueRepository struct {
	mu       sync.RWMutex
	ordered  []*domain.Issue
	byID     map[string]*domain.Issue
	byHash   map[string]*domain.Issue
	byTicket map[string]*domain.Issue
}

// NewMemoryIssueRepository returns an in-process store. Results are copies;
// callers never share state with the store.
func NewMemoryIssueRepository() IssueRepository {
	return &memoryIssueRepository{
		byID:     make(map[string]*domain.Issue),
		byHash:   make(map[string]*domain.Issue),
		byTicket: make(map[string]*domain.Issue),
	}
}

func (r *memoryIssueRepository) FindByHash(_ context.Context, hash string) (*domain.Issue, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	issue, ok := r.byHash[hash]
	if !ok {
		return nil, ErrNotFound
	}
	return issue.Clone(), nil
}

func (r *memoryIssueRepository) GetByTicketID(_ context.Context, ticketID string) (*domain.Issue, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	issue, ok := r.byTicket[ticketID]
	if !ok {
		return nil, ErrNotFound
	}
	return issue.Clone(), nil
}

func (r *memoryIssueRepository) ScanByCategory(_ context.Context, category string) ([]*domain.Issue, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*domain.Issue
	for _, issue := range r.ordered {
		if issue.Category == category {
			out = append(out, issue.Clone())
		}
	}
	return out, nil
}

func (r *memoryIssueRepository) Insert(_ context.Context, issue *domain.Issue) (*domain.Issue, error) {
	rec, err := prepareInsert(issue)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.byHash[rec.ContentHash]; exists {
		return nil, ErrDuplicateHash
	}
	if _, exists := r.byTicket[rec.TicketID]; exists {
		return nil, ErrConflict
	}
	if _, exists := r.byID[rec.ID]; exists {
		return nil, ErrConflict
	}
	r.ordered = append(r.ordered, rec)
	r.byID[rec.ID] = rec
	r.byHash[rec.ContentHash] = rec
	r.byTicket[rec.TicketID] = rec
	return rec.Clone(), nil
}

func (r *memoryIssueRepository) Update(_ context.Context, id string, patch IssuePatch) (*domain.Issue, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	issue, ok := r.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	patch.Apply(issue)
	return issue.Clone(), nil
}

func (r *memoryIssueRepository) List(_ context.Context, filter IssueFilter) ([]*domain.Issue, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var matched []*domain.Issue
	for i := len(r.ordered) - 1; i >= 0; i-- {
		issue := r.ordered[i]
		if filter.Status != "" && issue.Status != filter.Status {
			continue
		}
		if filter.Category != "" && issue.Category != filter.Category {
			continue
		}
		if filter.Reporter != "" && !issue.HasReporter(filter.Reporter) {
			continue
		}
		matched = append(matched, issue)
	}
	return paginate(matched, filter.Limit, filter.Offset), nil
}

func (r *memoryIssueRepository) Ping(context.Context) error {
	return nil
}

func paginate(items []*domain.Issue, limit, offset int) []*domain.Issue {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(items) {
		return nil
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	out := make([]*domain.Issue, len(items))
	for i, issue := range items {
		out[i] = issue.Clone()
	}
	return out
}

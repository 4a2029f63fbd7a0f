// Package inmemory provides map-backed repository implementations used by
// tests and by runs that do not need durability.
package inmemory

import (
	"context"
	"sync"

	"github.com/findexa/repscout/models"
)

type Ledger struct {
	mu      sync.RWMutex
	actions map[string]map[string]models.ActionRecord // company -> url -> record
	stacks  map[string][]string
	done    map[string]models.ActionRecord
}

func NewLedger() *Ledger {
	return &Ledger{
		actions: make(map[string]map[string]models.ActionRecord),
		stacks:  make(map[string][]string),
		done:    make(map[string]models.ActionRecord),
	}
}

func (l *Ledger) StoreAction(_ context.Context, company, url string, record models.ActionRecord, final bool) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.actions[company] == nil {
		l.actions[company] = make(map[string]models.ActionRecord)
	}
	l.actions[company][url] = record
	l.stacks[company] = append(l.stacks[company], url)
	if final {
		l.done[company] = record
	}
	return nil
}

func (l *Ledger) Action(_ context.Context, company, url string) (*models.ActionRecord, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	rec, ok := l.actions[company][url]
	if !ok {
		return nil, nil
	}
	return &rec, nil
}

func (l *Ledger) AllActions(_ context.Context, company string) ([]models.ActionRecord, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	records := make([]models.ActionRecord, 0, len(l.actions[company]))
	for _, rec := range l.actions[company] {
		records = append(records, rec)
	}
	return records, nil
}

func (l *Ledger) DeleteAll(_ context.Context, company string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.actions, company)
	delete(l.stacks, company)
	delete(l.done, company)
	return nil
}

func (l *Ledger) CurrentURL(_ context.Context, company string) (string, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	stack := l.stacks[company]
	if len(stack) == 0 {
		return "", nil
	}
	return stack[len(stack)-1], nil
}

func (l *Ledger) FullURLQueue(_ context.Context, company string) ([]string, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	queue := make([]string, len(l.stacks[company]))
	copy(queue, l.stacks[company])
	return queue, nil
}

func (l *Ledger) DoneAction(_ context.Context, company string) (*models.ActionRecord, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	rec, ok := l.done[company]
	if !ok {
		return nil, nil
	}
	return &rec, nil
}

type SiteStore struct {
	mu    sync.RWMutex
	sites map[string]models.SiteInfo
	order []string
}

func NewSiteStore() *SiteStore {
	return &SiteStore{sites: make(map[string]models.SiteInfo)}
}

func (s *SiteStore) SaveSite(_ context.Context, company string, site models.SiteInfo) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sites[company]; !ok {
		s.order = append(s.order, company)
	}
	s.sites[company] = site
	return nil
}

func (s *SiteStore) GetSite(_ context.Context, company string) (models.SiteInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	site, ok := s.sites[company]
	if !ok {
		return models.SiteInfo{}, models.ErrSiteNotFound
	}
	return site, nil
}

func (s *SiteStore) Companies(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	companies := make([]string, len(s.order))
	copy(companies, s.order)
	return companies, nil
}

type ConversationStore struct {
	mu    sync.RWMutex
	convo map[string][]string
}

func NewConversationStore() *ConversationStore {
	return &ConversationStore{convo: make(map[string][]string)}
}

func (c *ConversationStore) AppendConversation(_ context.Context, company, kind, content string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	key := kind + ":" + company
	c.convo[key] = append(c.convo[key], content)
	return nil
}

func (c *ConversationStore) Conversation(_ context.Context, company, kind string) ([]string, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	key := kind + ":" + company
	history := make([]string, len(c.convo[key]))
	copy(history, c.convo[key])
	return history, nil
}

package repository

import (
	"context"

	"github.com/findexa/repscout/config"
	"github.com/findexa/repscout/models"
	"github.com/findexa/repscout/repository/redis_repository"
)

// ActionLedger is the durable record of navigation decisions, partitioned by
// company. The crawl session is the only writer for its company; the
// orchestrator and future sessions read it back for memoization.
type ActionLedger interface {
	// StoreAction persists one decision taken at url. When final is true the
	// record also becomes the company's done marker.
	StoreAction(ctx context.Context, company, url string, record models.ActionRecord, final bool) error
	// Action returns the record taken at url, or nil when none exists.
	Action(ctx context.Context, company, url string) (*models.ActionRecord, error)
	// AllActions returns every record for the company, in no particular order.
	AllActions(ctx context.Context, company string) ([]models.ActionRecord, error)
	// DeleteAll clears records, the navigation stack and the done marker.
	DeleteAll(ctx context.Context, company string) error
	// CurrentURL returns the most recently pushed stack entry, or "" when empty.
	CurrentURL(ctx context.Context, company string) (string, error)
	// FullURLQueue returns the navigation stack in visit order.
	FullURLQueue(ctx context.Context, company string) ([]string, error)
	// DoneAction returns the record marked final, or nil when none exists.
	DoneAction(ctx context.Context, company string) (*models.ActionRecord, error)
}

// SiteStore holds the known web entry points per company.
type SiteStore interface {
	SaveSite(ctx context.Context, company string, site models.SiteInfo) error
	// GetSite returns models.ErrSiteNotFound when the company is unknown.
	GetSite(ctx context.Context, company string) (models.SiteInfo, error)
	Companies(ctx context.Context) ([]string, error)
}

// ConversationStore keeps append-only oracle transcripts per (company, kind).
type ConversationStore interface {
	AppendConversation(ctx context.Context, company, kind, content string) error
	Conversation(ctx context.Context, company, kind string) ([]string, error)
}

// Stores bundles the Redis-backed repositories sharing one connection.
type Stores struct {
	Ledger        ActionLedger
	Sites         SiteStore
	Conversations ConversationStore
}

// NewRedisStores connects to Redis and returns the repository set.
func NewRedisStores(ctx context.Context, cfg config.RedisConfig) (*Stores, error) {
	client, err := redis_repository.Conn(ctx, cfg.Host, cfg.Port, cfg.Password, cfg.DB, cfg.Timeout)
	if err != nil {
		return nil, err
	}
	return &Stores{
		Ledger:        redis_repository.NewActionLedger(client),
		Sites:         redis_repository.NewSiteStore(client),
		Conversations: redis_repository.NewConversationStore(client),
	}, nil
}

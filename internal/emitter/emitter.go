package emitter

import (
	"context"

	"github.com/rpattn/metaemit/internal/domain"
	"github.com/rpattn/metaemit/internal/transport"

	"go.uber.org/zap"
)

const defaultTermSource = "INTERNAL"

// Config is captured once at construction and never changes for the lifetime
// of the emitter.
type Config struct {
	Env               string
	Actor             string
	DatasetPlatform   string
	DashboardPlatform string
	GMSServer         string
	Token             string
}

// DefaultConfig returns the configuration used when nothing is supplied.
func DefaultConfig() Config {
	return Config{
		Env:               "DEV",
		Actor:             "urn:li:corpuser:admin",
		DatasetPlatform:   "bigquery",
		DashboardPlatform: "datastudio",
	}
}

// Sender delivers a change proposal to the catalog.
type Sender interface {
	Send(ctx context.Context, proposal domain.ChangeProposal) error
}

// Poster issues a direct query-style call against the catalog.
type Poster interface {
	Post(ctx context.Context, endpoint string, body any, headers map[string]string) (*transport.Response, error)
}

// Emitter turns entity update requests into change proposals and hands them,
// one at a time and in a fixed order, to its Sender.
//
// Updates that produce several proposals are not atomic. If the Nth send
// fails the error is returned unchanged and the first N-1 proposals stay
// applied at the catalog.
type Emitter struct {
	config Config
	sender Sender
	poster Poster
	log    *zap.Logger
}

// New creates an emitter. Empty configuration fields take DefaultConfig values.
func New(config Config, sender Sender, poster Poster, log *zap.Logger) *Emitter {
	defaults := DefaultConfig()
	if config.Env == "" {
		config.Env = defaults.Env
	}
	if config.Actor == "" {
		config.Actor = defaults.Actor
	}
	if config.DatasetPlatform == "" {
		config.DatasetPlatform = defaults.DatasetPlatform
	}
	if config.DashboardPlatform == "" {
		config.DashboardPlatform = defaults.DashboardPlatform
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Emitter{
		config: config,
		sender: sender,
		poster: poster,
		log:    log,
	}
}

// Config returns the emitter configuration.
func (e *Emitter) Config() Config {
	return e.config
}

// ResolveChangeType maps a change type token; unknown tokens mean UPSERT.
func (e *Emitter) ResolveChangeType(token string) domain.ChangeType {
	return domain.ResolveChangeType(token)
}

// UpsertGlossaryTerm emits a single glossaryTermInfo proposal.
func (e *Emitter) UpsertGlossaryTerm(ctx context.Context, req GlossaryTermRequest) error {
	return e.emit(ctx, "upsert glossary term", e.PlanGlossaryTerm(req))
}

// UpsertUser emits a single corpUserInfo proposal.
func (e *Emitter) UpsertUser(ctx context.Context, req UserRequest) error {
	return e.emit(ctx, "upsert user", e.PlanUser(req))
}

// UpsertTag emits a single tagProperties proposal.
func (e *Emitter) UpsertTag(ctx context.Context, req TagRequest) error {
	return e.emit(ctx, "upsert tag", e.PlanTag(req))
}

// UpsertDataset emits the base datasetProperties proposal followed by one
// proposal per non-empty optional group. See Emitter for partial failure.
func (e *Emitter) UpsertDataset(ctx context.Context, req DatasetRequest) error {
	return e.emit(ctx, "upsert dataset", e.PlanDataset(req))
}

// UpsertDashboard emits the chart and dashboard proposals followed by one
// proposal per non-empty optional group. See Emitter for partial failure.
func (e *Emitter) UpsertDashboard(ctx context.Context, req DashboardRequest) error {
	return e.emit(ctx, "upsert dashboard", e.PlanDashboard(req))
}

func (e *Emitter) emit(ctx context.Context, op string, proposals []domain.ChangeProposal) error {
	for i, proposal := range proposals {
		e.log.Debug("emitting change proposal",
			zap.String("op", op),
			zap.String("entity_urn", proposal.EntityURN),
			zap.String("aspect", proposal.AspectName),
			zap.String("change_type", string(proposal.ChangeType)),
		)
		if err := e.sender.Send(ctx, proposal); err != nil {
			e.log.Error("change proposal failed",
				zap.String("op", op),
				zap.String("entity_urn", proposal.EntityURN),
				zap.String("aspect", proposal.AspectName),
				zap.Int("applied", i),
				zap.Int("total", len(proposals)),
				zap.Error(err),
			)
			return err
		}
	}
	return nil
}

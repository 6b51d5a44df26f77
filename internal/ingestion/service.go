package ingestion

import (
	"context"
	"fmt"

	"github.com/rpattn/metaemit/internal/emitter"

	"go.uber.org/zap"
)

// Emitter is the subset of the entity emitter a manifest needs.
type Emitter interface {
	UpsertGlossaryTerm(ctx context.Context, req emitter.GlossaryTermRequest) error
	UpsertTag(ctx context.Context, req emitter.TagRequest) error
	UpsertUser(ctx context.Context, req emitter.UserRequest) error
	UpsertDataset(ctx context.Context, req emitter.DatasetRequest) error
	UpsertDashboard(ctx context.Context, req emitter.DashboardRequest) error
}

// Service applies manifests through an Emitter.
type Service struct {
	emitter Emitter
	log     *zap.Logger
}

// NewService creates a new ingestion service.
func NewService(e Emitter, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{emitter: e, log: log}
}

// Options control how a manifest is applied.
type Options struct {
	// StopOnError aborts at the first failed item instead of continuing.
	StopOnError bool
}

// ItemError describes one entity update that failed.
type ItemError struct {
	Kind    string `json:"kind"`
	Name    string `json:"name"`
	Message string `json:"message"`
}

// Summary reports what a manifest application did.
type Summary struct {
	Total   int         `json:"total"`
	Applied int         `json:"applied"`
	Failed  int         `json:"failed"`
	Errors  []ItemError `json:"errors"`
}

type item struct {
	kind  string
	name  string
	apply func(ctx context.Context) error
}

// Apply sends every entity update in the manifest. Glossary terms, tags and
// users go first so datasets and dashboards referencing them land after.
// Items are independent: a failure does not undo earlier items.
func (s *Service) Apply(ctx context.Context, manifest Manifest, opts Options) (Summary, error) {
	items := s.plan(manifest)
	summary := Summary{Total: len(items), Errors: []ItemError{}}

	for _, it := range items {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		if err := it.apply(ctx); err != nil {
			summary.Failed++
			summary.Errors = append(summary.Errors, ItemError{Kind: it.kind, Name: it.name, Message: err.Error()})
			s.log.Warn("manifest item failed",
				zap.String("kind", it.kind),
				zap.String("name", it.name),
				zap.Error(err),
			)
			if opts.StopOnError {
				return summary, fmt.Errorf("%s %s: %w", it.kind, it.name, err)
			}
			continue
		}
		summary.Applied++
	}

	s.log.Info("manifest applied",
		zap.Int("total", summary.Total),
		zap.Int("applied", summary.Applied),
		zap.Int("failed", summary.Failed),
	)
	return summary, nil
}

// IngestFile parses a manifest file and applies it.
func (s *Service) IngestFile(ctx context.Context, fileName string, payload []byte, opts Options) (Summary, error) {
	manifest, err := ParseManifest(fileName, payload)
	if err != nil {
		return Summary{Errors: []ItemError{}}, err
	}
	return s.Apply(ctx, manifest, opts)
}

func (s *Service) plan(m Manifest) []item {
	items := make([]item, 0, m.Len())
	for _, req := range m.GlossaryTerms {
		items = append(items, item{"glossaryTerm", req.Name, func(ctx context.Context) error { return s.emitter.UpsertGlossaryTerm(ctx, req) }})
	}
	for _, req := range m.Tags {
		items = append(items, item{"tag", req.Name, func(ctx context.Context) error { return s.emitter.UpsertTag(ctx, req) }})
	}
	for _, req := range m.Users {
		items = append(items, item{"user", req.Name, func(ctx context.Context) error { return s.emitter.UpsertUser(ctx, req) }})
	}
	for _, req := range m.Datasets {
		items = append(items, item{"dataset", req.Name, func(ctx context.Context) error { return s.emitter.UpsertDataset(ctx, req) }})
	}
	for _, req := range m.Dashboards {
		items = append(items, item{"dashboard", req.Name, func(ctx context.Context) error { return s.emitter.UpsertDashboard(ctx, req) }})
	}
	return items
}

package core

import (
	"context"

	"scenecore/pkg/domain"
)

// TypeResolver is the external lookup surface the engine consumes. The
// lookup package provides a caching implementation.
type TypeResolver interface {
	AssetForTag(ctx context.Context, tag string) (string, error)
	TagForType(ctx context.Context, typ string) (string, error)
	TypeForTag(ctx context.Context, tag string) (string, error)
}

// Service exposes the user-facing editing operations. Every mutation runs
// through the command history so it stays reversible.
type Service struct {
	store    *SceneStore
	ids      *IdentityManager
	history  *History
	rules    *domain.RulesEngine
	resolver TypeResolver
	metrics  MetricsRecorder
	log      Logger
}

// ServiceOption customizes a Service.
type ServiceOption func(*Service)

// WithLogger attaches a logger.
func WithLogger(log Logger) ServiceOption {
	return func(s *Service) {
		if log != nil {
			s.log = log
		}
	}
}

// WithMetrics attaches a metrics recorder.
func WithMetrics(rec MetricsRecorder) ServiceOption {
	return func(s *Service) {
		if rec != nil {
			s.metrics = rec
		}
	}
}

// WithStore binds the service to an existing scene store, typically one
// wrapped by a persistence layer.
func WithStore(store *SceneStore) ServiceOption {
	return func(s *Service) {
		if store != nil {
			s.store = store
		}
	}
}

// WithResolver attaches the external lookup resolver.
func WithResolver(r TypeResolver) ServiceOption {
	return func(s *Service) { s.resolver = r }
}

// WithRules replaces the paste rules engine.
func WithRules(engine *domain.RulesEngine) ServiceOption {
	return func(s *Service) {
		if engine != nil {
			s.rules = engine
		}
	}
}

// NewService constructs a service with an empty scene.
func NewService(opts ...ServiceOption) *Service {
	s := &Service{
		store:   NewSceneStore(),
		ids:     NewIdentityManager(),
		rules:   DefaultRulesEngine(),
		metrics: noopMetrics{},
		log:     noopLogger{},
	}
	for _, opt := range opts {
		opt(s)
	}
	s.history = NewHistory(s.store, WithHistoryMetrics(s.metrics), WithHistoryLogger(s.log))
	return s
}

// Store returns the underlying scene store.
func (s *Service) Store() *SceneStore { return s.store }

// History returns the command engine.
func (s *Service) History() *History { return s.history }

// Identity returns the identity manager.
func (s *Service) Identity() *IdentityManager { return s.ids }

// ImportScene loads imported records, assigning identifiers and seeding
// baselines. Import is not an edit: it records no history.
func (s *Service) ImportScene(items []domain.PlacedItem, elements []domain.ArchitecturalObject, floors []domain.Floor, plates map[int][]domain.FloorPlate) {
	seeded := make([]domain.PlacedItem, 0, len(items))
	for _, it := range items {
		it = s.ids.EnsureItem(it)
		it.SeedBaseline()
		seeded = append(seeded, it)
	}
	objs := make([]domain.ArchitecturalObject, 0, len(elements))
	for _, obj := range elements {
		obj = s.ids.EnsureObject(obj)
		obj.SeedBaseline()
		objs = append(objs, obj)
	}
	s.store.Seed(seeded, objs, floors, plates)
	s.log.Info("scene imported", "items", len(seeded), "elements", len(objs), "floors", len(floors))
}

// Undo reverts the most recent command.
func (s *Service) Undo() (string, bool) { return s.history.Undo() }

// Redo re-applies the most recently undone command.
func (s *Service) Redo() (string, bool) { return s.history.Redo() }

package components

import (
	"github.com/google/uuid"

	"nodekit/config"
	"nodekit/internal/metrics"
	"nodekit/util"
)

// NodeTypes identifies the concrete node variant a builder targets.
// Implementations are zero-size marker types.
type NodeTypes interface {
	NodeKind() string
}

// BuilderContext is the runtime environment handed to every component
// builder.  The orchestrator itself only logs through it and records
// stage timings.
type BuilderContext[N NodeTypes] struct {
	ID      uuid.UUID
	Config  *config.Config
	Logger  *util.Logger
	Metrics *metrics.Collector
}

// NewBuilderContext returns a context with a fresh node ID.
func NewBuilderContext[N NodeTypes](cfg *config.Config, logger *util.Logger, m *metrics.Collector) *BuilderContext[N] {
	return &BuilderContext[N]{
		ID:      uuid.New(),
		Config:  cfg,
		Logger:  logger,
		Metrics: m,
	}
}

// NodeKind reports the kind of the node variant N.
func (bc *BuilderContext[N]) NodeKind() string {
	var n N
	return n.NodeKind()
}

func (bc *BuilderContext[N]) logger() *util.Logger {
	if bc == nil {
		return nil
	}
	return bc.Logger
}

func (bc *BuilderContext[N]) metrics() *metrics.Collector {
	if bc == nil {
		return nil
	}
	return bc.Metrics
}

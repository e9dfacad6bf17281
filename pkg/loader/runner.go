// Package loader reads the graph document, derives the model and hands it
// to whoever serves it.
package loader

import (
	"context"
	"fmt"
	"sync"

	"github.com/ritzau/causegraph/pkg/cycles"
	"github.com/ritzau/causegraph/pkg/logging"
	"github.com/ritzau/causegraph/pkg/model"
	"github.com/ritzau/causegraph/pkg/pubsub"
	"github.com/ritzau/causegraph/pkg/source"
)

// Sink receives loaded models and load progress.
type Sink interface {
	SetModel(m *model.Model, cycles []cycles.HierarchyCycle)
	PublishModelStatus(status pubsub.ModelStatus)
}

// Result is one loaded document.
type Result struct {
	Model  *model.Model
	Cycles []cycles.HierarchyCycle
	Links  int // links in the document, before dropping invalid ones
}

// Load reads src and builds the model.
func Load(ctx context.Context, src source.Source) (*Result, error) {
	raw, err := src.Load(ctx)
	if err != nil {
		return nil, err
	}

	m := model.Build(raw)
	return &Result{
		Model:  m,
		Cycles: cycles.FindHierarchyCycles(m),
		Links:  len(raw.Links),
	}, nil
}

// Runner orchestrates loading. Runs are serialized.
type Runner struct {
	src  source.Source
	sink Sink
	mu   sync.Mutex // Prevent concurrent loads
}

// NewRunner creates a runner feeding sink from src.
func NewRunner(src source.Source, sink Sink) *Runner {
	return &Runner{
		src:  src,
		sink: sink,
	}
}

// Source returns the source the runner loads from.
func (r *Runner) Source() source.Source {
	return r.src
}

// Run loads the document and installs the model. On failure the previously
// installed model stays in place.
func (r *Runner) Run(ctx context.Context, reason string) (*Result, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	logger := logging.New("loader")
	logger.Info("loading graph document", "source", r.src.Name(), "reason", reason)

	r.publish(pubsub.ModelStatus{
		State:   pubsub.StateLoading,
		Message: "Loading graph document...",
		Source:  r.src.Name(),
		Reason:  reason,
	})

	res, err := Load(ctx, r.src)
	if err != nil {
		logger.Error("failed to load graph document", "source", r.src.Name(), "error", err)
		r.publish(pubsub.ModelStatus{
			State:   pubsub.StateError,
			Message: fmt.Sprintf("Error loading graph document: %v", err),
			Source:  r.src.Name(),
			Reason:  reason,
		})
		return nil, fmt.Errorf("load failed: %w", err)
	}

	m := res.Model
	if m.DroppedLinks > 0 || m.DuplicateNodes > 0 {
		logger.Debug("dropped malformed input",
			"links", m.DroppedLinks,
			"duplicateNodes", m.DuplicateNodes,
		)
	}
	for _, c := range res.Cycles {
		logger.Warn("hierarchy cycle", "nodes", c.Nodes)
	}

	if r.sink != nil {
		r.sink.SetModel(m, res.Cycles)
	}

	logger.Info("graph document loaded",
		"nodes", len(m.Nodes),
		"childLinks", len(m.ChildLinks),
		"interfaceLinks", len(m.InterfaceLinks),
		"functionRoots", len(m.FunctionRoots),
	)
	r.publish(pubsub.ModelStatus{
		State:   pubsub.StateReady,
		Message: "Graph document loaded",
		Source:  r.src.Name(),
		Reason:  reason,
		Nodes:   len(m.Nodes),
		Links:   len(m.ChildLinks) + len(m.InterfaceLinks),
		Cycles:  len(res.Cycles),
	})

	return res, nil
}

func (r *Runner) publish(status pubsub.ModelStatus) {
	if r.sink != nil {
		r.sink.PublishModelStatus(status)
	}
}

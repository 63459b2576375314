// Package worker runs the change-processing loop: it pops queued change
// records, routes them to the schema or state graph of their version,
// reconciles synthesized instances, persists the live graphs, snapshots
// archives on timestamp rollover, and appends every applied change to the
// delta log.
//
// Exactly one worker may run against a version at a time. The loop itself is
// the single writer of the live files; combined with the atomic writes of
// the filesystem blob driver, readers never observe a partial file. Running
// two workers against the same version is unsupported.
package worker

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"go.uber.org/zap"

	"chaincore/internal/deltalog"
	"chaincore/internal/graph"
	"chaincore/internal/queue"
	"chaincore/internal/store"
	"chaincore/pkg/domain"
)

// defaultIdleWait is the pause after an empty pop before polling again.
const defaultIdleWait = 10 * time.Millisecond

// Worker consumes the change queue and applies records to the versioned
// graph store.
type Worker struct {
	queue    queue.Queue
	store    *store.VersionedStore
	deltas   deltalog.Log
	logger   *zap.Logger
	metrics  *Metrics
	idleWait time.Duration
	nowFn    func() time.Time

	// lastSeen tracks the newest processed change timestamp per version;
	// a differing incoming timestamp triggers the archive snapshot.
	lastSeen map[string]int64
}

// New constructs a worker over its collaborators. metrics may be nil.
func New(q queue.Queue, st *store.VersionedStore, deltas deltalog.Log, logger *zap.Logger, metrics *Metrics) *Worker {
	return &Worker{
		queue:    q,
		store:    st,
		deltas:   deltas,
		logger:   logger,
		metrics:  metrics,
		idleWait: defaultIdleWait,
		nowFn:    time.Now,
		lastSeen: make(map[string]int64),
	}
}

// Run processes records until ctx is cancelled. The record in flight when
// cancellation arrives is finished before Run returns.
func (w *Worker) Run(ctx context.Context) {
	w.logger.Info("worker started")
	for {
		select {
		case <-ctx.Done():
			w.logger.Info("worker stopped")
			return
		default:
		}

		raw, err := w.queue.Pop(ctx)
		if errors.Is(err, queue.ErrEmpty) {
			w.sleep(ctx)
			continue
		}
		if err != nil {
			if ctx.Err() != nil {
				w.logger.Info("worker stopped")
				return
			}
			w.logger.Error("queue pop failed", zap.Error(err))
			w.sleep(ctx)
			continue
		}
		w.Process(ctx, raw)
	}
}

func (w *Worker) sleep(ctx context.Context) {
	select {
	case <-ctx.Done():
	case <-time.After(w.idleWait):
	}
}

// Process decodes and applies one raw change record. Per-record faults
// (malformed payloads, referential violations, missing nodes) drop the
// record and are counted; the record was already removed from the queue, so
// this is an explicit at-most-once policy.
func (w *Worker) Process(ctx context.Context, raw []byte) {
	var change domain.Change
	if err := json.Unmarshal(raw, &change); err != nil {
		w.logger.Warn("dropping undecodable change record", zap.Error(err))
		w.metrics.recordProcessed("unknown", "unknown", "dropped")
		return
	}
	if err := change.Validate(); err != nil {
		w.logger.Warn("dropping invalid change record", zap.Error(err))
		w.metrics.recordProcessed(string(change.Type), string(change.Action.Normalize()), "dropped")
		return
	}

	version := store.NormalizeVersion(change.Version)
	if change.Version == "" {
		w.logger.Warn("change names no version, using default", zap.String("version", version))
	}
	action := change.Action.Normalize()
	w.logger.Info("processing change",
		zap.String("change_type", string(change.Type)),
		zap.String("action", string(action)),
		zap.String("version", version),
		zap.Int64("timestamp", change.Timestamp))

	w.archiveOnRollover(ctx, version, change.Timestamp)

	if err := w.apply(ctx, version, action, &change); err != nil {
		if domain.RecordFault(err) {
			w.logger.Warn("change rejected, record dropped",
				zap.String("version", version),
				zap.Int64("timestamp", change.Timestamp),
				zap.Error(err))
			w.metrics.recordProcessed(string(change.Type), string(action), "dropped")
			return
		}
		w.logger.Error("change failed on storage, record dropped",
			zap.String("version", version),
			zap.Int64("timestamp", change.Timestamp),
			zap.Error(err))
		w.metrics.recordProcessed(string(change.Type), string(action), "failed")
		return
	}

	w.lastSeen[version] = change.Timestamp
	w.metrics.recordProcessed(string(change.Type), string(action), "applied")

	// Best-effort audit append; failures never block graph processing.
	if err := w.deltas.Append(ctx, deltalog.EntryFor(&change, version, w.nowFn())); err != nil {
		w.logger.Error("delta log append failed", zap.Int64("timestamp", change.Timestamp), zap.Error(err))
		w.metrics.recordDeltaLogError()
	}
}

// archiveOnRollover snapshots the version's graphs under the previous
// timestamp when the incoming record carries a different one. The snapshot
// captures every record of the old timestamp and none of the new.
func (w *Worker) archiveOnRollover(ctx context.Context, version string, incoming int64) {
	last, ok := w.lastSeen[version]
	if !ok || last == incoming {
		return
	}
	schema := w.store.LoadLiveSchema(ctx, version)
	state := w.store.LoadLiveState(ctx, version, schema)
	for kind, g := range map[domain.ChangeType]*domain.Graph{
		domain.ChangeSchema: schema,
		domain.ChangeState:  state,
	} {
		written, err := w.store.WriteArchive(ctx, kind, version, last, g)
		if err != nil {
			w.logger.Error("archive snapshot failed",
				zap.String("kind", string(kind)),
				zap.String("version", version),
				zap.Int64("timestamp", last),
				zap.Error(err))
			continue
		}
		if written {
			w.metrics.recordArchive()
		}
	}
}

// apply routes a validated change to its graphs and persists the result.
func (w *Worker) apply(ctx context.Context, version string, action domain.Action, c *domain.Change) error {
	schema := w.store.LoadLiveSchema(ctx, version)
	state := w.store.LoadLiveState(ctx, version, schema)

	switch c.Type {
	case domain.ChangeSchema:
		next, err := w.applySchema(schema, state, action, c)
		if err != nil {
			return err
		}
		if err := w.store.SaveLiveSchema(ctx, version, next); err != nil {
			return err
		}
		return w.store.SaveLiveState(ctx, version, state)
	case domain.ChangeState:
		next, err := w.applyState(state, action, c)
		if err != nil {
			return err
		}
		return w.store.SaveLiveState(ctx, version, next)
	}
	return domain.ValidationError{Field: "type", Reason: "unroutable change type " + string(c.Type)}
}

// applySchema mutates the schema graph and reconciles instance counts in the
// state graph for every touched node declaring units_in_chain. The state
// graph is mutated in place; the new schema graph is returned.
func (w *Worker) applySchema(schema, state *domain.Graph, action domain.Action, c *domain.Change) (*domain.Graph, error) {
	var next *domain.Graph
	var touched []string

	if c.Payload != nil {
		applied, err := graph.Apply(schema, action, c.Payload)
		if err != nil {
			return nil, err
		}
		next = applied
		if c.Payload.NodeID != "" {
			touched = append(touched, c.Payload.NodeID)
		}
	} else {
		if action == domain.ActionDelete {
			return nil, domain.ValidationError{Field: "action", Reason: "bulk delete is not supported"}
		}
		next = graph.ApplyBulk(schema, c.Data)
		for _, group := range c.Data.Nodes {
			for id := range group {
				touched = append(touched, id)
			}
		}
	}

	now := w.nowFn()
	for _, id := range touched {
		node, ok := next.Node(id)
		if !ok {
			continue
		}
		units, ok := node.Props[domain.PropUnitsInChain].AsInt()
		if !ok {
			continue
		}
		created, retired := graph.Reconcile(state, node, units, now)
		w.metrics.recordInstances(created, retired)
	}
	return next, nil
}

// applyState mutates the state graph: bulk changes merge additively, targeted
// payloads use the same primitives as schema changes.
func (w *Worker) applyState(state *domain.Graph, action domain.Action, c *domain.Change) (*domain.Graph, error) {
	if c.Payload != nil {
		return graph.Apply(state, action, c.Payload)
	}
	if action == domain.ActionDelete {
		return nil, domain.ValidationError{Field: "action", Reason: "bulk delete is not supported"}
	}
	return graph.ApplyBulk(state, c.Data), nil
}

// Package store lays out the four versioned storage trees (live schema, live
// state, schema archive, state archive) on top of a blob.Store and owns the
// load/save/snapshot operations against them. Every tree is partitioned by
// version namespace; no operation under one version touches another.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path"
	"sort"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"chaincore/internal/blob"
	"chaincore/internal/codec"
	"chaincore/pkg/domain"
)

// DefaultVersion is the namespace used when a change names no version.
const DefaultVersion = "v1.0"

// Tree prefixes under the blob root.
const (
	liveSchemaTree    = "liveschema"
	liveStateTree     = "livestate"
	schemaArchiveTree = "schemaarchive"
	stateArchiveTree  = "statearchive"
)

// VersionedStore reads and writes the live graph files and archive snapshots
// for all versions.
type VersionedStore struct {
	blobs  blob.Store
	logger *zap.Logger
}

// New constructs a store over the given blob backend.
func New(blobs blob.Store, logger *zap.Logger) *VersionedStore {
	return &VersionedStore{blobs: blobs, logger: logger}
}

// NormalizeVersion maps an absent version to the default namespace.
func NormalizeVersion(version string) string {
	if strings.TrimSpace(version) == "" {
		return DefaultVersion
	}
	return version
}

func liveKey(tree, version string) string {
	name := "current_schema.json"
	if tree == liveStateTree {
		name = "current_state.json"
	}
	return path.Join(tree, NormalizeVersion(version), name)
}

func archiveKey(tree, version string, timestamp int64) string {
	return path.Join(tree, NormalizeVersion(version), strconv.FormatInt(timestamp, 10)+".json")
}

func archiveTree(kind domain.ChangeType) string {
	if kind == domain.ChangeState {
		return stateArchiveTree
	}
	return schemaArchiveTree
}

func liveTree(kind domain.ChangeType) string {
	if kind == domain.ChangeState {
		return liveStateTree
	}
	return liveSchemaTree
}

// loadLive reads one live graph file. A missing file yields an empty graph
// (first run for the version); an unreadable or malformed file also falls
// back to empty but is logged distinctly, trading correctness for
// availability.
func (s *VersionedStore) loadLive(ctx context.Context, tree, version string) *domain.Graph {
	key := liveKey(tree, version)
	data, err := s.blobs.Read(ctx, key)
	if errors.Is(err, blob.ErrNotExist) {
		s.logger.Info("live graph not found, starting empty", zap.String("key", key))
		return domain.NewGraph()
	}
	if err != nil {
		s.logger.Warn("live graph unreadable, falling back to empty", zap.String("key", key), zap.Error(err))
		return domain.NewGraph()
	}
	g := domain.NewGraph()
	if err := json.Unmarshal(data, g); err != nil {
		s.logger.Warn("live graph corrupt, falling back to empty", zap.String("key", key), zap.Error(err))
		return domain.NewGraph()
	}
	return g
}

// LoadLiveSchema returns the live schema graph for a version.
func (s *VersionedStore) LoadLiveSchema(ctx context.Context, version string) *domain.Graph {
	return s.loadLive(ctx, liveSchemaTree, version)
}

// LoadLiveState returns the live state graph for a version. When the state
// file has never been written, state is bootstrapped as a copy of the given
// schema graph.
func (s *VersionedStore) LoadLiveState(ctx context.Context, version string, schema *domain.Graph) *domain.Graph {
	key := liveKey(liveStateTree, version)
	if ok, err := s.blobs.Exists(ctx, key); err == nil && !ok {
		s.logger.Info("live state not found, bootstrapping from schema", zap.String("key", key))
		return schema.Clone()
	}
	return s.loadLive(ctx, liveStateTree, version)
}

// SaveLiveSchema overwrites the live schema file for a version.
func (s *VersionedStore) SaveLiveSchema(ctx context.Context, version string, g *domain.Graph) error {
	return s.saveLive(ctx, liveSchemaTree, version, g)
}

// SaveLiveState overwrites the live state file for a version.
func (s *VersionedStore) SaveLiveState(ctx context.Context, version string, g *domain.Graph) error {
	return s.saveLive(ctx, liveStateTree, version, g)
}

func (s *VersionedStore) saveLive(ctx context.Context, tree, version string, g *domain.Graph) error {
	data, err := json.MarshalIndent(g, "", "  ")
	if err != nil {
		return fmt.Errorf("encode live graph: %w", err)
	}
	if err := s.blobs.Write(ctx, liveKey(tree, version), data); err != nil {
		return fmt.Errorf("write live graph: %w", err)
	}
	return nil
}

// WriteArchive encodes g through the columnar codec and stores it under
// (version, timestamp) in the archive tree for kind. Archives are immutable:
// when a snapshot already exists for the key, nothing is written and false is
// returned.
func (s *VersionedStore) WriteArchive(ctx context.Context, kind domain.ChangeType, version string, timestamp int64, g *domain.Graph) (bool, error) {
	key := archiveKey(archiveTree(kind), version, timestamp)
	if ok, err := s.blobs.Exists(ctx, key); err != nil {
		return false, fmt.Errorf("check archive: %w", err)
	} else if ok {
		return false, nil
	}
	data, err := json.MarshalIndent(codec.Encode(g), "", "  ")
	if err != nil {
		return false, domain.CodecError{Op: "encode", Err: err}
	}
	if err := s.blobs.Write(ctx, key, data); err != nil {
		return false, fmt.Errorf("write archive: %w", err)
	}
	return true, nil
}

// ListArchives returns the snapshot timestamps recorded for a version's
// archive tree, ascending.
func (s *VersionedStore) ListArchives(ctx context.Context, kind domain.ChangeType, version string) ([]int64, error) {
	prefix := path.Join(archiveTree(kind), NormalizeVersion(version)) + "/"
	keys, err := s.blobs.List(ctx, prefix)
	if err != nil {
		return nil, fmt.Errorf("list archives: %w", err)
	}
	var timestamps []int64
	for _, key := range keys {
		name := strings.TrimSuffix(path.Base(key), ".json")
		ts, err := strconv.ParseInt(name, 10, 64)
		if err != nil {
			continue
		}
		timestamps = append(timestamps, ts)
	}
	sort.Slice(timestamps, func(i, j int) bool { return timestamps[i] < timestamps[j] })
	return timestamps, nil
}

// ReadArchive returns the stored columnar snapshot document as written.
func (s *VersionedStore) ReadArchive(ctx context.Context, kind domain.ChangeType, version string, timestamp int64) ([]byte, error) {
	return s.blobs.Read(ctx, archiveKey(archiveTree(kind), version, timestamp))
}

// ReadLive returns the raw live graph file for a version, or an empty
// node-link document when none exists yet.
func (s *VersionedStore) ReadLive(ctx context.Context, kind domain.ChangeType, version string) ([]byte, error) {
	data, err := s.blobs.Read(ctx, liveKey(liveTree(kind), version))
	if errors.Is(err, blob.ErrNotExist) {
		return []byte(`{"nodes":{},"links":[]}`), nil
	}
	return data, err
}

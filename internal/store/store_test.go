package store

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"chaincore/internal/blob"
	"chaincore/internal/codec"
	"chaincore/pkg/domain"
)

func newTestStore() (*VersionedStore, blob.Store) {
	blobs := blob.NewMemory()
	return New(blobs, zap.NewNop()), blobs
}

func sampleGraph(t *testing.T) *domain.Graph {
	t.Helper()
	g := domain.NewGraph()
	require.NoError(t, g.AddNode(domain.Node{
		ID:    "p1",
		Type:  domain.NodeParts,
		Props: domain.Properties{"name": domain.String("bolt")},
	}))
	return g
}

func TestNormalizeVersion(t *testing.T) {
	assert.Equal(t, DefaultVersion, NormalizeVersion(""))
	assert.Equal(t, DefaultVersion, NormalizeVersion("  "))
	assert.Equal(t, "v2.0", NormalizeVersion("v2.0"))
}

func TestLoadLiveSchemaMissingYieldsEmpty(t *testing.T) {
	st, _ := newTestStore()
	g := st.LoadLiveSchema(context.Background(), "v1.0")
	assert.Equal(t, 0, g.Len())
}

func TestLiveSchemaRoundTrip(t *testing.T) {
	st, _ := newTestStore()
	ctx := context.Background()

	require.NoError(t, st.SaveLiveSchema(ctx, "v1.0", sampleGraph(t)))
	g := st.LoadLiveSchema(ctx, "v1.0")
	require.Equal(t, 1, g.Len())
	n, ok := g.Node("p1")
	require.True(t, ok)
	assert.Equal(t, domain.NodeParts, n.Type)
}

func TestLiveCorruptFileFallsBackToEmpty(t *testing.T) {
	st, blobs := newTestStore()
	ctx := context.Background()
	require.NoError(t, blobs.Write(ctx, "liveschema/v1.0/current_schema.json", []byte("not json")))

	g := st.LoadLiveSchema(ctx, "v1.0")
	assert.Equal(t, 0, g.Len())
}

func TestLoadLiveStateBootstrapsFromSchema(t *testing.T) {
	st, _ := newTestStore()
	ctx := context.Background()
	schema := sampleGraph(t)

	state := st.LoadLiveState(ctx, "v1.0", schema)
	assert.Equal(t, 1, state.Len(), "unwritten state starts as a schema copy")

	state.PutNode(domain.Node{ID: "extra", Type: domain.NodeParts})
	assert.False(t, schema.HasNode("extra"), "bootstrap must be a copy")

	require.NoError(t, st.SaveLiveState(ctx, "v1.0", domain.NewGraph()))
	state = st.LoadLiveState(ctx, "v1.0", schema)
	assert.Equal(t, 0, state.Len(), "written state wins over schema bootstrap")
}

func TestVersionsAreIsolated(t *testing.T) {
	st, _ := newTestStore()
	ctx := context.Background()

	require.NoError(t, st.SaveLiveSchema(ctx, "v1.0", sampleGraph(t)))
	assert.Equal(t, 0, st.LoadLiveSchema(ctx, "v2.0").Len())

	written, err := st.WriteArchive(ctx, domain.ChangeSchema, "v1.0", 100, sampleGraph(t))
	require.NoError(t, err)
	require.True(t, written)

	other, err := st.ListArchives(ctx, domain.ChangeSchema, "v2.0")
	require.NoError(t, err)
	assert.Empty(t, other)
}

func TestWriteArchiveIsImmutable(t *testing.T) {
	st, _ := newTestStore()
	ctx := context.Background()

	written, err := st.WriteArchive(ctx, domain.ChangeState, "v1.0", 100, sampleGraph(t))
	require.NoError(t, err)
	assert.True(t, written)

	bigger := sampleGraph(t)
	bigger.PutNode(domain.Node{ID: "p2", Type: domain.NodeParts})
	written, err = st.WriteArchive(ctx, domain.ChangeState, "v1.0", 100, bigger)
	require.NoError(t, err)
	assert.False(t, written, "existing snapshot must not be replaced")

	raw, err := st.ReadArchive(ctx, domain.ChangeState, "v1.0", 100)
	require.NoError(t, err)
	var a codec.Archive
	require.NoError(t, json.Unmarshal(raw, &a))
	g, err := codec.Decode(&a)
	require.NoError(t, err)
	assert.Equal(t, 1, g.Len())
}

func TestListArchivesAscending(t *testing.T) {
	st, _ := newTestStore()
	ctx := context.Background()
	for _, ts := range []int64{300, 100, 200} {
		_, err := st.WriteArchive(ctx, domain.ChangeSchema, "v1.0", ts, sampleGraph(t))
		require.NoError(t, err)
	}

	timestamps, err := st.ListArchives(ctx, domain.ChangeSchema, "v1.0")
	require.NoError(t, err)
	assert.Equal(t, []int64{100, 200, 300}, timestamps)
}

func TestSchemaAndStateArchivesAreSeparate(t *testing.T) {
	st, _ := newTestStore()
	ctx := context.Background()
	_, err := st.WriteArchive(ctx, domain.ChangeSchema, "v1.0", 100, sampleGraph(t))
	require.NoError(t, err)

	stateTimestamps, err := st.ListArchives(ctx, domain.ChangeState, "v1.0")
	require.NoError(t, err)
	assert.Empty(t, stateTimestamps)
}

func TestReadLiveMissingReturnsEmptyDoc(t *testing.T) {
	st, _ := newTestStore()
	data, err := st.ReadLive(context.Background(), domain.ChangeSchema, "v9.9")
	require.NoError(t, err)
	assert.JSONEq(t, `{"nodes":{},"links":[]}`, string(data))
}

package artifact_test

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkdev28/Cropp/internal/domain/bundle"
	"github.com/mkdev28/Cropp/internal/domain/model"
	"github.com/mkdev28/Cropp/internal/infrastructure/artifact"
	"github.com/mkdev28/Cropp/pkg/testutil"
)

func TestEncodeDecode(t *testing.T) {
	b := testutil.TrainedBundle(t)

	data, err := artifact.Encode(b)
	require.NoError(t, err)
	state, err := b.MarshalState()
	require.NoError(t, err)
	assert.Less(t, len(data), len(state))

	restored, err := artifact.Decode(data)
	require.NoError(t, err)
	assert.Equal(t, b.ID(), restored.ID())

	farm := testutil.RainfedDroughtFarm()
	want, err := b.Score(farm)
	require.NoError(t, err)
	got, err := restored.Score(farm)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestDecode_Uncompressed(t *testing.T) {
	b := testutil.TrainedBundle(t)
	state, err := b.MarshalState()
	require.NoError(t, err)

	restored, err := artifact.Decode(state)
	require.NoError(t, err)
	assert.Equal(t, b.ID(), restored.ID())
}

func TestDecode_Garbage(t *testing.T) {
	_, err := artifact.Decode([]byte{0x28, 0xb5, 0x2f, 0xfd, 0x00})
	assert.Error(t, err)

	_, err = artifact.Decode([]byte("not a bundle"))
	assert.Error(t, err)
}

func TestFileStore_ExportAndLoad(t *testing.T) {
	b := testutil.TrainedBundle(t)
	store, err := artifact.NewFileStore(filepath.Join(t.TempDir(), "bundles"))
	require.NoError(t, err)

	path, err := store.Export(context.Background(), b)
	require.NoError(t, err)
	assert.Equal(t, store.Path(b.ID()), path)

	raw, err := os.ReadFile(filepath.Join(store.Dir(), b.ID().String()+"_metadata.json"))
	require.NoError(t, err)
	var summary bundle.Summary
	require.NoError(t, json.Unmarshal(raw, &summary))
	assert.Equal(t, b.ID(), summary.BundleID)
	assert.Len(t, summary.TopFeatures, 10)

	loaded, err := store.Load(b.ID())
	require.NoError(t, err)
	assert.Equal(t, b.Summary().FeatureNames, loaded.Summary().FeatureNames)

	entries, err := os.ReadDir(store.Dir())
	require.NoError(t, err)
	assert.Len(t, entries, 2, "no temp files left behind")
}

func TestFileStore_LoadMissing(t *testing.T) {
	store, err := artifact.NewFileStore(t.TempDir())
	require.NoError(t, err)

	_, err = store.Load(uuid.New())
	assert.True(t, errors.Is(err, model.ErrBundleNotFound))
}

func TestFileStore_CancelledContext(t *testing.T) {
	store, err := artifact.NewFileStore(t.TempDir())
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = store.Export(ctx, testutil.TrainedBundle(t))
	assert.ErrorIs(t, err, context.Canceled)
}

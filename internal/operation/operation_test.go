package operation_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tomasbasham/imgup/internal/image"
	"github.com/tomasbasham/imgup/internal/operation"
	"github.com/tomasbasham/imgup/internal/plugin"
)

func TestMemoryStoreLifecycle(t *testing.T) {
	s := operation.NewMemoryStore()

	op, err := s.Create("aws-s3", 2)
	require.NoError(t, err)
	assert.Equal(t, operation.StatusPending, op.Status)
	assert.NotEmpty(t, op.ID)

	require.NoError(t, s.MarkRunning(op.ID))
	got, err := s.Get(op.ID)
	require.NoError(t, err)
	assert.Equal(t, operation.StatusRunning, got.Status)

	require.NoError(t, s.MarkComplete(op.ID, []operation.Image{{FileName: "a.png", URL: "u"}}))
	got, err = s.Get(op.ID)
	require.NoError(t, err)
	assert.Equal(t, operation.StatusComplete, got.Status)
	assert.Len(t, got.Images, 1)

	// Copies do not alias the stored operation.
	got.Images[0].URL = "changed"
	again, _ := s.Get(op.ID)
	assert.Equal(t, "u", again.Images[0].URL)

	_, err = s.Get("missing")
	assert.Error(t, err)
	assert.Error(t, s.MarkRunning("missing"))
}

func newRegistry(t *testing.T, h plugin.Handler) *plugin.Registry {
	t.Helper()
	r := plugin.NewRegistry()
	require.NoError(t, r.Register(plugin.Provider{ID: "fake", Name: "Fake", Handle: h}))
	return r
}

func TestRunComplete(t *testing.T) {
	s := operation.NewMemoryStore()
	op, _ := s.Create("fake", 1)

	reg := newRegistry(t, func(_ context.Context, c *plugin.Context) error {
		for _, it := range c.Output {
			it.URL = "https://cdn/" + it.FileName
		}
		return nil
	})

	operation.Run(context.Background(), operation.WorkerOptions{
		OperationID: op.ID,
		Provider:    "fake",
		Store:       s,
		Registry:    reg,
		Batch:       &plugin.Context{Output: []*image.Item{{FileName: "a.png", Buffer: []byte("a")}}},
	})

	got, err := s.Get(op.ID)
	require.NoError(t, err)
	assert.Equal(t, operation.StatusComplete, got.Status)
	assert.Equal(t, []operation.Image{{FileName: "a.png", URL: "https://cdn/a.png"}}, got.Images)
}

func TestRunFailed(t *testing.T) {
	s := operation.NewMemoryStore()
	op, _ := s.Create("fake", 1)

	reg := newRegistry(t, func(context.Context, *plugin.Context) error {
		return errors.New("bucket not found")
	})

	operation.Run(context.Background(), operation.WorkerOptions{
		OperationID: op.ID,
		Provider:    "fake",
		Store:       s,
		Registry:    reg,
		Batch:       &plugin.Context{},
	})

	got, err := s.Get(op.ID)
	require.NoError(t, err)
	assert.Equal(t, operation.StatusFailed, got.Status)
	assert.Equal(t, "bucket not found", got.Error)
	assert.Empty(t, got.Images)
}

package dispatch_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tomasbasham/imgup/internal/config"
	"github.com/tomasbasham/imgup/internal/dispatch"
	"github.com/tomasbasham/imgup/internal/image"
	"github.com/tomasbasham/imgup/internal/storage"
	"github.com/tomasbasham/imgup/internal/storage/s3test"
)

var fixedNow = func() time.Time { return time.Date(2024, time.June, 15, 12, 0, 0, 0, time.UTC) }

// memoryUploader stores objects in memory and fails the keys in fail.
type memoryUploader struct {
	mu      sync.Mutex
	objects map[string][]byte
	fail    map[string]error
	calls   atomic.Int32
}

func newMemoryUploader() *memoryUploader {
	return &memoryUploader{objects: make(map[string][]byte), fail: make(map[string]error)}
}

func (m *memoryUploader) Upload(_ context.Context, req *storage.UploadRequest) (*storage.UploadResult, error) {
	m.calls.Add(1)
	if err, ok := m.fail[req.ObjectName]; ok {
		return nil, err
	}
	body, err := io.ReadAll(req.Content)
	if err != nil {
		return nil, err
	}
	m.mu.Lock()
	m.objects[req.ObjectName] = body
	m.mu.Unlock()
	return &storage.UploadResult{ObjectName: req.ObjectName, URL: "mem://" + req.ObjectName}, nil
}

func items(names ...string) []*image.Item {
	out := make([]*image.Item, len(names))
	for i, n := range names {
		out[i] = &image.Item{Buffer: []byte(n), FileName: n + ".png", ExtName: ".png"}
	}
	return out
}

func TestUploadOne(t *testing.T) {
	up := newMemoryUploader()
	item := &image.Item{Buffer: []byte("data"), FileName: "a.png", ExtName: ".png"}

	res, err := dispatch.UploadOne(context.Background(), up, 4, "k/a.png", item, "public-read")
	require.NoError(t, err)
	assert.Equal(t, dispatch.Result{Index: 4, Key: "k/a.png", Location: "mem://k/a.png", Size: 4}, res)
	assert.Equal(t, []byte("data"), up.objects["k/a.png"])
}

func TestUploadOneUndefinedImage(t *testing.T) {
	up := newMemoryUploader()

	_, err := dispatch.UploadOne(context.Background(), up, 0, "k", &image.Item{FileName: "a.png"}, "")
	assert.ErrorIs(t, err, image.ErrUndefinedImage)
	assert.Zero(t, up.calls.Load())
}

func TestUploadOneWrapsBackendError(t *testing.T) {
	up := newMemoryUploader()
	boom := errors.New("connection reset")
	up.fail["k"] = boom

	_, err := dispatch.UploadOne(context.Background(), up, 2, "k", items("a")[0], "")

	var uerr *dispatch.UploadError
	require.ErrorAs(t, err, &uerr)
	assert.Equal(t, 2, uerr.Index)
	assert.Equal(t, "k", uerr.Key)
	assert.ErrorIs(t, err, boom)
	assert.Empty(t, uerr.Code())
}

func TestDispatchAllSucceed(t *testing.T) {
	up := newMemoryUploader()
	batch := items("a", "b", "c")

	results, err := dispatch.Dispatch(context.Background(), up, batch, dispatch.Options{
		Template: "{year}/{month}/{filename}.{extName}",
		Now:      fixedNow,
	})
	require.NoError(t, err)
	require.Len(t, results, 3)

	for i, name := range []string{"a", "b", "c"} {
		assert.Equal(t, i, results[i].Index)
		assert.Equal(t, "2024/06/"+name+".png", results[i].Key)
		assert.Equal(t, "mem://2024/06/"+name+".png", results[i].Location)
	}

	// Dispatch leaves the host's items alone.
	for _, it := range batch {
		assert.True(t, it.HasPayload())
		assert.Empty(t, it.URL)
	}
}

func TestDispatchFailsWholeBatch(t *testing.T) {
	up := newMemoryUploader()
	boom := errors.New("access denied")
	up.fail["b.png"] = boom

	results, err := dispatch.Dispatch(context.Background(), up, items("a", "b", "c"), dispatch.Options{
		Template: "{filename}.{extName}",
	})
	assert.Nil(t, results)

	var uerr *dispatch.UploadError
	require.ErrorAs(t, err, &uerr)
	assert.Equal(t, 1, uerr.Index)
	assert.ErrorIs(t, err, boom)

	// Every upload was still attempted and the others were not rolled back.
	assert.EqualValues(t, 3, up.calls.Load())
	assert.Len(t, up.objects, 2)
}

func TestDispatchUndefinedImageFailsBeforeUpload(t *testing.T) {
	up := newMemoryUploader()
	batch := items("a", "b")
	batch = append(batch, &image.Item{FileName: "empty.png"})

	_, err := dispatch.Dispatch(context.Background(), up, batch, dispatch.Options{Template: "{md5}"})
	assert.ErrorIs(t, err, image.ErrUndefinedImage)
	assert.Zero(t, up.calls.Load())
}

type countingObserver struct {
	mu       sync.Mutex
	outcomes map[string]int
	bytes    int
}

func (o *countingObserver) ObserveUpload(outcome string, size int, _ time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.outcomes[outcome]++
	o.bytes += size
}

func TestDispatchObserver(t *testing.T) {
	up := newMemoryUploader()
	up.fail["bb.png"] = errors.New("nope")
	obs := &countingObserver{outcomes: make(map[string]int)}

	_, _ = dispatch.Dispatch(context.Background(), up, items("a", "bb", "ccc"), dispatch.Options{
		Template: "{filename}.{extName}",
		Observer: obs,
	})

	assert.Equal(t, map[string]int{"success": 2, "failure": 1}, obs.outcomes)
	assert.Equal(t, 4, obs.bytes)
}

func s3Config(endpoint string) config.S3Config {
	cfg := config.DefaultS3Config()
	cfg.AccessKeyID = "AKIDEXAMPLE"
	cfg.SecretAccessKey = "secret"
	cfg.BucketName = "images"
	cfg.Endpoint = endpoint
	cfg.PathStyleAccess = true
	return cfg
}

func TestUploadBatchS3(t *testing.T) {
	srv := s3test.NewServer()
	defer srv.Close()

	results, err := dispatch.UploadBatch(context.Background(), s3Config(srv.URL), items("a", "b"), dispatch.Options{Now: fixedNow})
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, 2, srv.Len())

	obj, ok := srv.Object("images", results[0].Key)
	require.True(t, ok)
	assert.Equal(t, "public-read", obj.ACL)
	assert.Equal(t, "image/png", obj.ContentType)
	assert.Equal(t, srv.URL+"/images/"+results[0].Key, results[0].Location)
}

func TestUploadBatchS3ServiceError(t *testing.T) {
	srv := s3test.NewServer()
	defer srv.Close()

	cfg := s3Config(srv.URL)
	cfg.UploadPath = "{filename}.{extName}"
	srv.Reject("b.png", http.StatusForbidden)

	_, err := dispatch.UploadBatch(context.Background(), cfg, items("a", "b", "c"), dispatch.Options{})

	var uerr *dispatch.UploadError
	require.ErrorAs(t, err, &uerr)
	assert.Equal(t, 1, uerr.Index)
	assert.Equal(t, "AccessDenied", uerr.Code())
	assert.Equal(t, 2, srv.Len())
}

func TestUploadBatchRequiresCredentials(t *testing.T) {
	cfg := config.DefaultS3Config()
	cfg.BucketName = "images"

	_, err := dispatch.UploadBatch(context.Background(), cfg, items("a"), dispatch.Options{})
	var verr *config.ValidationError
	assert.ErrorAs(t, err, &verr)
}

func TestUploadBatchTLS(t *testing.T) {
	srv := s3test.NewTLSServer()
	defer srv.Close()

	cfg := s3Config(srv.URL)
	_, err := dispatch.UploadBatch(context.Background(), cfg, items("a"), dispatch.Options{})
	assert.ErrorContains(t, err, "certificate")

	cfg.RejectUnauthorized = false
	_, err = dispatch.UploadBatch(context.Background(), cfg, items("a"), dispatch.Options{})
	assert.NoError(t, err)
}

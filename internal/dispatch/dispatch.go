// Package dispatch uploads a batch of images concurrently. A batch succeeds
// only if every item does; the first failure is returned and nothing is
// rolled back, so objects written before the failure stay in the store.
package dispatch

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aws/smithy-go"
	"golang.org/x/sync/errgroup"

	"github.com/tomasbasham/imgup/internal/image"
	"github.com/tomasbasham/imgup/internal/pathfmt"
	"github.com/tomasbasham/imgup/internal/storage"
)

// Result is the outcome of one upload. Index is the item's position in the
// batch it was submitted with.
type Result struct {
	Index    int
	Key      string
	Location string
	Size     int
}

// UploadError wraps a failure reported by the storage backend.
type UploadError struct {
	Index int
	Key   string
	Err   error
}

func (e *UploadError) Error() string {
	return fmt.Sprintf("upload of item %d to %q failed: %v", e.Index, e.Key, e.Err)
}

func (e *UploadError) Unwrap() error { return e.Err }

// Code returns the service error code, e.g. "AccessDenied", or an empty
// string for transport failures.
func (e *UploadError) Code() string {
	var apiErr smithy.APIError
	if errors.As(e.Err, &apiErr) {
		return apiErr.ErrorCode()
	}
	return ""
}

// Observer is notified after every upload attempt.
type Observer interface {
	ObserveUpload(outcome string, size int, elapsed time.Duration)
}

// Options control how a batch is keyed and uploaded.
type Options struct {
	// Template is the upload path template; see pathfmt.Format.
	Template string

	// ACL is passed to the backend with every object.
	ACL string

	// Now returns the time used for date placeholders. Defaults to
	// time.Now.
	Now func() time.Time

	Logger   *slog.Logger
	Observer Observer
}

func (o Options) now() time.Time {
	if o.Now != nil {
		return o.Now()
	}
	return time.Now()
}

func (o Options) logger() *slog.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return slog.New(slog.DiscardHandler)
}

// UploadOne uploads a single item under key. An item without a payload
// fails with image.ErrUndefinedImage before the backend is called; backend
// failures are returned as *UploadError.
func UploadOne(ctx context.Context, up storage.Uploader, index int, key string, item *image.Item, acl string) (Result, error) {
	p, err := item.Payload()
	if err != nil {
		return Result{}, fmt.Errorf("item %d: %w", index, err)
	}

	res, err := up.Upload(ctx, &storage.UploadRequest{
		ObjectName:      key,
		Content:         bytes.NewReader(p.Body),
		ContentType:     p.ContentType,
		ContentEncoding: p.ContentEncoding,
		ACL:             acl,
	})
	if err != nil {
		return Result{}, &UploadError{Index: index, Key: key, Err: err}
	}

	return Result{Index: index, Key: res.ObjectName, Location: res.URL, Size: len(p.Body)}, nil
}

// Dispatch keys every item, then uploads all of them at once. There is no
// limit on in-flight uploads and no retry. Keys are resolved up front, so an
// item without a payload fails the batch before anything is sent.
//
// On failure the first error is returned once every started upload has
// finished; in-flight uploads are not cancelled.
func Dispatch(ctx context.Context, up storage.Uploader, items []*image.Item, opts Options) ([]Result, error) {
	log := opts.logger()

	keys := make([]string, len(items))
	for i, item := range items {
		key, err := pathfmt.Format(item, opts.Template, opts.now())
		if err != nil {
			return nil, fmt.Errorf("item %d: %w", i, err)
		}
		keys[i] = key
	}

	results := make([]Result, len(items))

	var g errgroup.Group
	for i, item := range items {
		g.Go(func() error {
			start := time.Now()
			res, err := UploadOne(ctx, up, i, keys[i], item, opts.ACL)
			elapsed := time.Since(start)

			if err != nil {
				log.Error("upload failed", "index", i, "key", keys[i], "error", err)
				observe(opts.Observer, "failure", 0, elapsed)
				return err
			}

			log.Debug("uploaded", "index", i, "key", res.Key, "location", res.Location, "elapsed", elapsed)
			observe(opts.Observer, "success", res.Size, elapsed)
			results[i] = res
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func observe(o Observer, outcome string, size int, elapsed time.Duration) {
	if o != nil {
		o.ObserveUpload(outcome, size, elapsed)
	}
}

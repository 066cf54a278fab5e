package operation

import (
	"context"

	"github.com/tomasbasham/imgup/internal/plugin"
)

// WorkerOptions configures an upload worker invocation.
type WorkerOptions struct {
	OperationID string
	Provider    string
	Store       Store
	Registry    *plugin.Registry

	// Batch carries the images and host services handed to the provider.
	Batch *plugin.Context
}

// Run uploads the batch through the provider and transitions the operation
// through running → complete | failed.
//
// Run is intended to be called in a separate goroutine; it owns the full
// lifecycle of the operation from the moment it is called.
func Run(ctx context.Context, opts WorkerOptions) {
	if err := opts.Store.MarkRunning(opts.OperationID); err != nil {
		// If we cannot even mark it running the store is broken; nothing to do.
		return
	}

	if err := opts.Registry.Upload(ctx, opts.Provider, opts.Batch); err != nil {
		_ = opts.Store.MarkFailed(opts.OperationID, err)
		return
	}

	images := make([]Image, len(opts.Batch.Output))
	for i, item := range opts.Batch.Output {
		images[i] = Image{FileName: item.FileName, URL: item.URL}
	}

	_ = opts.Store.MarkComplete(opts.OperationID, images)
}

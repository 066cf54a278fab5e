// Package storage provides an abstraction for uploading images to an object
// store and resolving the URL they can be fetched from. S3 (and anything that
// speaks its API) is the primary backend; GCS and a local directory satisfy
// the same interface.
package storage

import (
	"context"
	"io"
)

// Uploader persists a single object to a storage backend.
type Uploader interface {
	Upload(ctx context.Context, req *UploadRequest) (*UploadResult, error)
}

type UploadRequest struct {
	// ObjectName is the object key within the configured bucket.
	ObjectName string

	// Content is the data to be uploaded.
	Content io.Reader

	// ContentType is the MIME type of the content, e.g. "image/png".
	ContentType string

	// ContentEncoding is sent as the object's Content-Encoding when set.
	ContentEncoding string

	// ACL is a canned access control value understood by the backend, e.g.
	// "public-read". Backends without ACLs ignore it.
	ACL string
}

// UploadResult is the outcome of a successful upload.
type UploadResult struct {
	// ObjectName is the object key within the configured bucket.
	ObjectName string

	// URL is where the backend reports the object can be reached.
	URL string
}

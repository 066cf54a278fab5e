package dispatch

import (
	"context"

	"github.com/tomasbasham/imgup/internal/config"
	"github.com/tomasbasham/imgup/internal/image"
	"github.com/tomasbasham/imgup/internal/storage"
)

// UploadBatch validates cfg, builds an S3 uploader for it and dispatches
// items. The uploader lives for this batch only. The template and ACL in
// opts are replaced by the ones in cfg.
func UploadBatch(ctx context.Context, cfg config.S3Config, items []*image.Item, opts Options) ([]Result, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	up, err := storage.NewS3Uploader(ctx, mapS3Config(cfg))
	if err != nil {
		return nil, err
	}

	opts.Template = cfg.UploadPath
	opts.ACL = cfg.ACL
	return Dispatch(ctx, up, items, opts)
}

func mapS3Config(cfg config.S3Config) storage.S3Options {
	return storage.S3Options{
		AccessKeyID:        cfg.AccessKeyID,
		SecretAccessKey:    cfg.SecretAccessKey,
		Bucket:             cfg.BucketName,
		Region:             cfg.Region,
		Endpoint:           cfg.Endpoint,
		PathStyle:          cfg.PathStyleAccess,
		InsecureSkipVerify: !cfg.RejectUnauthorized,
	}
}

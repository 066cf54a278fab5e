package plugin

import (
	"context"

	"github.com/tomasbasham/imgup/internal/config"
	"github.com/tomasbasham/imgup/internal/dispatch"
)

const (
	S3ProviderID   = "aws-s3"
	S3ProviderName = "Amazon S3"
)

// RegisterS3 registers the Amazon S3 provider.
func RegisterS3(r *Registry) error {
	return r.Register(Provider{
		ID:     S3ProviderID,
		Name:   S3ProviderName,
		Config: s3Schema,
		Handle: notifyOnError(S3ProviderName, handleS3),
	})
}

func s3Schema(src config.Source) []config.Field {
	cfg := config.DefaultS3Config()
	if src != nil {
		// Nothing saved yet means the form starts from the defaults.
		_ = src.Load(S3ProviderID, &cfg)
	}
	return config.S3Schema(cfg)
}

func handleS3(ctx context.Context, c *Context) error {
	cfg := config.DefaultS3Config()
	if err := c.load(S3ProviderID, &cfg); err != nil {
		return err
	}

	log := c.logger().With("provider", S3ProviderID, "bucket", cfg.BucketName)

	results, err := dispatch.UploadBatch(ctx, cfg, c.Output, dispatch.Options{
		Now:      c.Now,
		Logger:   log,
		Observer: c.Metrics.Provider(S3ProviderID),
	})
	if err != nil {
		return err
	}

	ApplyResults(c.Output, results, cfg.URLPrefix)
	log.Info("batch uploaded", "count", len(results))
	return nil
}

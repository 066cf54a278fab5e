package plugin

import (
	"context"

	"google.golang.org/api/option"

	"github.com/tomasbasham/imgup/internal/config"
	"github.com/tomasbasham/imgup/internal/dispatch"
	"github.com/tomasbasham/imgup/internal/storage"
)

const (
	GCSProviderID   = "gcs"
	GCSProviderName = "Google Cloud Storage"
)

// RegisterGCS registers the Google Cloud Storage provider.
func RegisterGCS(r *Registry) error {
	return r.Register(Provider{
		ID:     GCSProviderID,
		Name:   GCSProviderName,
		Config: gcsSchema,
		Handle: notifyOnError(GCSProviderName, handleGCS),
	})
}

func gcsSchema(src config.Source) []config.Field {
	cfg := config.DefaultGCSConfig()
	if src != nil {
		_ = src.Load(GCSProviderID, &cfg)
	}
	return config.GCSSchema(cfg)
}

func handleGCS(ctx context.Context, c *Context) error {
	cfg := config.DefaultGCSConfig()
	if err := c.load(GCSProviderID, &cfg); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	var opts []option.ClientOption
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}
	if cfg.Endpoint != "" {
		opts = append(opts, option.WithEndpoint(cfg.Endpoint))
	}

	up, err := storage.NewGCSUploader(ctx, cfg.BucketName, opts...)
	if err != nil {
		return err
	}
	defer up.Close()

	log := c.logger().With("provider", GCSProviderID, "bucket", cfg.BucketName)

	results, err := dispatch.Dispatch(ctx, up, c.Output, dispatch.Options{
		Template: cfg.UploadPath,
		ACL:      cfg.PredefinedACL,
		Now:      c.Now,
		Logger:   log,
		Observer: c.Metrics.Provider(GCSProviderID),
	})
	if err != nil {
		return err
	}

	ApplyResults(c.Output, results, cfg.URLPrefix)
	log.Info("batch uploaded", "count", len(results))
	return nil
}

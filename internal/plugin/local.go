package plugin

import (
	"context"

	"github.com/tomasbasham/imgup/internal/config"
	"github.com/tomasbasham/imgup/internal/dispatch"
	"github.com/tomasbasham/imgup/internal/storage"
)

const (
	LocalProviderID   = "local"
	LocalProviderName = "Local Directory"
)

// RegisterLocal registers the local directory provider.
func RegisterLocal(r *Registry) error {
	return r.Register(Provider{
		ID:     LocalProviderID,
		Name:   LocalProviderName,
		Config: localSchema,
		Handle: notifyOnError(LocalProviderName, handleLocal),
	})
}

func localSchema(src config.Source) []config.Field {
	cfg := config.DefaultLocalConfig()
	if src != nil {
		_ = src.Load(LocalProviderID, &cfg)
	}
	return config.LocalSchema(cfg)
}

func handleLocal(ctx context.Context, c *Context) error {
	cfg := config.DefaultLocalConfig()
	if err := c.load(LocalProviderID, &cfg); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	up, err := storage.NewLocalUploader(cfg.Directory)
	if err != nil {
		return err
	}

	log := c.logger().With("provider", LocalProviderID, "directory", cfg.Directory)

	results, err := dispatch.Dispatch(ctx, up, c.Output, dispatch.Options{
		Template: cfg.UploadPath,
		Now:      c.Now,
		Logger:   log,
		Observer: c.Metrics.Provider(LocalProviderID),
	})
	if err != nil {
		return err
	}

	ApplyResults(c.Output, results, cfg.URLPrefix)
	log.Info("batch uploaded", "count", len(results))
	return nil
}

package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tomasbasham/cli-runtime/templates"

	"github.com/tomasbasham/imgup/internal/config"
	"github.com/tomasbasham/imgup/internal/plugin"
)

type ConfigOptions struct {
	root     *RootOptions
	registry *plugin.Registry

	Providers []plugin.Provider
}

var (
	configLong = templates.LongDesc(`
		Print the settings a provider accepts, with the values currently
		saved in the config file or the defaults. Secrets are masked.`)

	configExample = templates.Examples(`
		# Show every provider
		imgup config

		# Show the Amazon S3 settings
		imgup config aws-s3`)
)

func NewConfigOptions(root *RootOptions, registry *plugin.Registry) *ConfigOptions {
	return &ConfigOptions{
		root:     root,
		registry: registry,
	}
}

func NewConfigCommand(o *ConfigOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:                   "config [PROVIDER]",
		DisableFlagsInUseLine: true,
		Short:                 "Show provider settings",
		Long:                  configLong,
		Example:               configExample,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := o.Complete(cmd, args); err != nil {
				return err
			}
			if err := o.Run(); err != nil {
				return err
			}
			return nil
		},
	}

	return cmd
}

func (o *ConfigOptions) Complete(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		o.Providers = o.registry.List()
		return nil
	}
	for _, id := range args {
		p, ok := o.registry.Get(id)
		if !ok {
			return fmt.Errorf("unknown provider %q", id)
		}
		o.Providers = append(o.Providers, p)
	}
	return nil
}

type providerSettings struct {
	ID     string         `json:"id"`
	Name   string         `json:"name"`
	Fields []config.Field `json:"fields"`
}

func (o *ConfigOptions) Run() error {
	src := o.root.Source()

	out := make([]providerSettings, 0, len(o.Providers))
	for _, p := range o.Providers {
		var fields []config.Field
		if p.Config != nil {
			fields = config.Redact(p.Config(src))
		}
		out = append(out, providerSettings{ID: p.ID, Name: p.Name, Fields: fields})
	}

	enc := json.NewEncoder(o.root.Out)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

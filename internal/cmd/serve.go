package cmd

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/tomasbasham/cli-runtime/templates"

	"github.com/tomasbasham/imgup/internal/metrics"
	"github.com/tomasbasham/imgup/internal/operation"
	"github.com/tomasbasham/imgup/internal/plugin"
	"github.com/tomasbasham/imgup/internal/server"
)

type ServeOptions struct {
	root     *RootOptions
	registry *plugin.Registry

	Port int
}

var (
	serveLong = templates.LongDesc(`Start the image upload HTTP server.`)

	serveExample = templates.Examples(`
		# Start on the default port
		imgup serve

		# Start on a custom port with a specific config file
		imgup serve --port 9090 --config /etc/imgup/config.yaml`)
)

func NewServeOptions(root *RootOptions, registry *plugin.Registry) *ServeOptions {
	return &ServeOptions{
		root:     root,
		registry: registry,
	}
}

func NewServeCommand(o *ServeOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "serve",
		Short:   "Start the image upload HTTP server",
		Long:    serveLong,
		Example: serveExample,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := o.Complete(cmd, args); err != nil {
				return err
			}
			if err := o.Validate(); err != nil {
				return err
			}
			if err := o.Run(); err != nil {
				return err
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&o.Port, "port", "p", 8080, "Port to listen on")

	return cmd
}

func (o *ServeOptions) Complete(cmd *cobra.Command, args []string) error {
	return nil
}

func (o *ServeOptions) Validate() error {
	if o.Port <= 0 || o.Port > 65535 {
		return fmt.Errorf("invalid port %d", o.Port)
	}
	return nil
}

func (o *ServeOptions) Run() error {
	log := o.root.Logger()

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	srv := server.New(operation.NewMemoryStore(), o.registry, server.Options{
		Config:   o.root.Source(),
		Logger:   log,
		Metrics:  metrics.NewRecorder(reg),
		Gatherer: reg,
	})

	addr := fmt.Sprintf(":%d", o.Port)
	log.Info("starting image upload server", "addr", addr, "config", o.root.ConfigPath)
	return srv.ListenAndServe(addr)
}

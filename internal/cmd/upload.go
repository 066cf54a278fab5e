package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/tomasbasham/cli-runtime/templates"

	"github.com/tomasbasham/imgup/internal/image"
	"github.com/tomasbasham/imgup/internal/plugin"
)

type UploadOptions struct {
	root     *RootOptions
	registry *plugin.Registry

	Provider string
	Paths    []string
}

var (
	uploadLong = templates.LongDesc(`
		Upload one or more image files through a provider and print one URL
		per file, in the order given. If any upload fails nothing is printed
		and the command exits non-zero; objects already written are left in
		place.`)

	uploadExample = templates.Examples(`
		# Upload to Amazon S3 using the default config file
		imgup upload cat.png dog.jpg

		# Upload to a local directory using a specific config file
		imgup upload --provider local --config ./imgup.yaml cat.png`)
)

func NewUploadOptions(root *RootOptions, registry *plugin.Registry) *UploadOptions {
	return &UploadOptions{
		root:     root,
		registry: registry,
	}
}

func NewUploadCommand(o *UploadOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:                   "upload [FILE...]",
		DisableFlagsInUseLine: true,
		Short:                 "Upload image files and print their URLs",
		Long:                  uploadLong,
		Example:               uploadExample,
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

	cmd.Flags().StringVarP(&o.Provider, "provider", "p", plugin.S3ProviderID, "Provider to upload with")

	return cmd
}

func (o *UploadOptions) Complete(cmd *cobra.Command, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("at least one file is required")
	}
	o.Paths = args
	return nil
}

func (o *UploadOptions) Validate() error {
	if _, ok := o.registry.Get(o.Provider); !ok {
		return fmt.Errorf("unknown provider %q", o.Provider)
	}
	for _, p := range o.Paths {
		info, err := os.Stat(p)
		if err != nil {
			return fmt.Errorf("cannot read %s: %w", p, err)
		}
		if info.IsDir() {
			return fmt.Errorf("%s is a directory", p)
		}
	}
	return nil
}

func (o *UploadOptions) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	items := make([]*image.Item, len(o.Paths))
	for i, p := range o.Paths {
		data, err := os.ReadFile(p)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", p, err)
		}
		items[i] = &image.Item{
			Buffer:   data,
			FileName: filepath.Base(p),
			ExtName:  filepath.Ext(p),
		}
	}

	batch := &plugin.Context{
		Output: items,
		Config: o.root.Source(),
		Logger: o.root.Logger(),
		Notifier: plugin.NotifierFunc(func(n plugin.Notification) {
			fmt.Fprintf(o.root.ErrOut, "%s: %s\n", n.Title, n.Body)
		}),
	}

	if err := o.registry.Upload(ctx, o.Provider, batch); err != nil {
		return fmt.Errorf("upload failed: %w", err)
	}

	for _, item := range items {
		fmt.Fprintln(o.root.Out, item.URL)
	}
	return nil
}

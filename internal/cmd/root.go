package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	cliflag "github.com/tomasbasham/cli-runtime/flag"
	"github.com/tomasbasham/cli-runtime/iooption"
	"github.com/tomasbasham/cli-runtime/printer"
	"github.com/tomasbasham/cli-runtime/templates"

	"github.com/tomasbasham/imgup/internal/config"
	"github.com/tomasbasham/imgup/internal/plugin"
)

var (
	rootLong = templates.LongDesc(`
		Upload images to S3-compatible object stores, naming each object from
		a path template, and print the URLs they can be fetched from.

		Provider settings are read from a config file with one section per
		provider under "picBed", for example "picBed.aws-s3".`)

	rootExamples = templates.Examples(`
		# Upload two screenshots to the configured S3 bucket
		imgup upload shot1.png shot2.png

		# Show the S3 settings and their current values
		imgup config aws-s3`)

	// Injected at build time using ldflags.
	version = ""
	commit  = ""
)

// RootOptions defines the options shared by every imgup command.
type RootOptions struct {
	ConfigPath string
	LogLevel   string
	LogFormat  string

	iooption.IOStreams
}

// NewRootOptions provides an initialised RootOptions instance.
func NewRootOptions(streams iooption.IOStreams) *RootOptions {
	return &RootOptions{
		IOStreams: streams,
	}
}

// NewRootCommand creates the `imgup` command with default arguments.
func NewRootCommand() *cobra.Command {
	options := NewRootOptions(iooption.IOStreams{
		In:     os.Stdin,
		Out:    os.Stdout,
		ErrOut: os.Stderr,
	})

	return NewRootCommandWithArgs(options)
}

// NewRootCommandWithArgs creates the `imgup` command and its nested
// children.
func NewRootCommandWithArgs(o *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:                   "imgup [command]",
		Version:               versionInfo(),
		DisableFlagsInUseLine: true,
		Short:                 "Templated image uploads to object storage",
		Long:                  rootLong,
		Example:               rootExamples,
		SilenceErrors:         true,
		SilenceUsage:          true,
	}

	printerOpts := printer.WarningPrinterOptions{Color: true}
	printer := printer.NewWarningPrinter(o.ErrOut, printerOpts)
	cmd.SetGlobalNormalizationFunc(cliflag.WarnWordSepNormalizeFunc(printer))

	pflags := cmd.PersistentFlags()
	pflags.StringVarP(&o.ConfigPath, "config", "c", defaultConfigPath(), "Path to the provider config file")
	pflags.StringVar(&o.LogLevel, "log-level", "info", "Log level: debug, info, warn or error")
	pflags.StringVar(&o.LogFormat, "log-format", "text", "Log format: text or json")

	registry := plugin.NewDefaultRegistry()

	cmd.AddCommand(NewUploadCommand(NewUploadOptions(o, registry)))
	cmd.AddCommand(NewServeCommand(NewServeOptions(o, registry)))
	cmd.AddCommand(NewConfigCommand(NewConfigOptions(o, registry)))

	// The globlal normalisation function ensures that all flags specified meet
	// the desired format, changing users' input if necessary.
	cmd.SetGlobalNormalizationFunc(cliflag.WordSepNormalizeFunc())

	return cmd
}

// Source returns the config source named by --config.
func (o *RootOptions) Source() config.Source {
	return config.NewFileSource(o.ConfigPath)
}

// Logger builds the structured logger selected by the log flags. Logs go to
// ErrOut so they never mix with command output.
func (o *RootOptions) Logger() *slog.Logger {
	return newLogger(o.ErrOut, o.LogLevel, o.LogFormat)
}

func newLogger(w io.Writer, level, format string) *slog.Logger {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: lvl}
	if format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func defaultConfigPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "imgup.json"
	}
	return filepath.Join(dir, "imgup", "config.json")
}

func versionInfo() string {
	if version == "" {
		return ""
	}
	return fmt.Sprintf("%s (commit: %s)", version, commit)
}

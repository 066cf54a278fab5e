// Package plugin is the boundary between upload providers and the host
// application that drives them. A provider registers a settings schema and
// a handler under a fixed id; the host picks a provider, hands it a batch of
// images and reads the URLs back off the items.
package plugin

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/tomasbasham/imgup/internal/config"
	"github.com/tomasbasham/imgup/internal/image"
	"github.com/tomasbasham/imgup/internal/metrics"
)

// ErrUnknownProvider is returned for an id nothing was registered under.
var ErrUnknownProvider = errors.New("unknown provider")

// Notification is a user-facing message raised by a provider.
type Notification struct {
	Title string `json:"title"`
	Body  string `json:"body"`
	Text  string `json:"text"`
}

// Notifier delivers notifications to the user.
type Notifier interface {
	Notify(n Notification)
}

// NotifierFunc adapts a function to a Notifier.
type NotifierFunc func(n Notification)

func (f NotifierFunc) Notify(n Notification) { f(n) }

// Context carries one batch and the host services a provider may use.
type Context struct {
	// Output is the batch. Providers write URLs back onto these items.
	Output []*image.Item

	// Config is read at the start of every batch.
	Config config.Source

	Logger   *slog.Logger
	Notifier Notifier
	Metrics  *metrics.Recorder

	// Now overrides the clock used for date placeholders.
	Now func() time.Time
}

// Emit sends n to the host's notifier, if it has one.
func (c *Context) Emit(n Notification) {
	if c.Notifier != nil {
		c.Notifier.Notify(n)
	}
}

func (c *Context) logger() *slog.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return slog.New(slog.DiscardHandler)
}

func (c *Context) load(provider string, dst any) error {
	if c.Config == nil {
		return fmt.Errorf("%w for provider %q", config.ErrConfigMissing, provider)
	}
	return c.Config.Load(provider, dst)
}

// Handler uploads the batch in c.
type Handler func(ctx context.Context, c *Context) error

// SchemaFunc returns a provider's settings, pre-filled from src.
type SchemaFunc func(src config.Source) []config.Field

// Provider is a registered upload target.
type Provider struct {
	ID     string
	Name   string
	Config SchemaFunc
	Handle Handler
}

// Registry holds providers in registration order.
type Registry struct {
	mu        sync.RWMutex
	providers map[string]Provider
	order     []string
}

func NewRegistry() *Registry {
	return &Registry{providers: make(map[string]Provider)}
}

// NewDefaultRegistry returns a registry holding every built-in provider.
func NewDefaultRegistry() *Registry {
	r := NewRegistry()
	for _, register := range []func(*Registry) error{RegisterS3, RegisterGCS, RegisterLocal} {
		if err := register(r); err != nil {
			panic(err)
		}
	}
	return r
}

// Register adds p. Ids are unique.
func (r *Registry) Register(p Provider) error {
	if p.ID == "" || p.Handle == nil {
		return errors.New("plugin: provider needs an id and a handler")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.providers[p.ID]; ok {
		return fmt.Errorf("plugin: provider %q already registered", p.ID)
	}
	r.providers[p.ID] = p
	r.order = append(r.order, p.ID)
	return nil
}

// Get looks a provider up by id.
func (r *Registry) Get(id string) (Provider, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.providers[id]
	return p, ok
}

// List returns every provider in registration order.
func (r *Registry) List() []Provider {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Provider, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.providers[id])
	}
	return out
}

// Upload runs the provider registered under id over c.Output.
func (r *Registry) Upload(ctx context.Context, id string, c *Context) error {
	p, ok := r.Get(id)
	if !ok {
		return fmt.Errorf("%w %q", ErrUnknownProvider, id)
	}

	err := p.Handle(ctx, c)

	outcome := "success"
	if err != nil {
		outcome = "failure"
	}
	c.Metrics.ObserveBatch(id, outcome)

	return err
}

// notifyOnError logs a failed batch and tells the user to check their
// settings before passing the error back to the host.
func notifyOnError(name string, h Handler) Handler {
	return func(ctx context.Context, c *Context) error {
		err := h(ctx, c)
		if err != nil {
			c.logger().Error("upload failed, please check your configuration", "provider", name, "error", err)
			c.Emit(Notification{
				Title: name + " upload error",
				Body:  "Please check your configuration",
			})
		}
		return err
	}
}

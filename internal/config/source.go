package config

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/spf13/viper"
)

// sectionPrefix is where provider settings live in the host config file.
const sectionPrefix = "picBed."

// Source reads the persisted settings of a provider.
type Source interface {
	// Load decodes the provider's section into dst. Fields absent from the
	// section keep the value dst already holds, so callers pass defaults in.
	Load(provider string, dst any) error
}

// FileSource reads settings from a JSON, YAML or TOML file. The file is
// parsed again on every Load so edits apply to the next batch.
type FileSource struct {
	path string
}

var _ Source = (*FileSource)(nil)

func NewFileSource(path string) *FileSource {
	return &FileSource{path: path}
}

func (s *FileSource) Load(provider string, dst any) error {
	v := viper.New()
	v.SetConfigFile(s.path)

	if err := v.ReadInConfig(); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w for provider %q: %s does not exist", ErrConfigMissing, provider, s.path)
		}
		return fmt.Errorf("unable to read config %s: %w", s.path, err)
	}

	key := sectionPrefix + provider
	if !v.IsSet(key) {
		return fmt.Errorf("%w for provider %q", ErrConfigMissing, provider)
	}
	if err := v.UnmarshalKey(key, dst); err != nil {
		return fmt.Errorf("unable to decode %s config: %w", provider, err)
	}
	return nil
}

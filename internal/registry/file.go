package registry

import (
	"fmt"

	"github.com/spf13/viper"
)

// Seed is one endpoint definition read from a YAML endpoints file.
// Expected format:
//
// endpoints:
//   - method: GET
//     path: /status
//     body: '{"ok": true}'
//
// method is optional; a seed without one answers every method.
type Seed struct {
	Method string `mapstructure:"method"`
	Path   string `mapstructure:"path"`
	Body   string `mapstructure:"body"`
}

// LoadFile reads endpoint seeds from a YAML file.
func LoadFile(path string) ([]Seed, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read endpoints file: %w", err)
	}
	var seeds []Seed
	if err := v.UnmarshalKey("endpoints", &seeds); err != nil {
		return nil, fmt.Errorf("parse endpoints file: %w", err)
	}
	for i, s := range seeds {
		if s.Path == "" {
			return nil, fmt.Errorf("endpoints[%d]: missing path", i)
		}
	}
	return seeds, nil
}

// ApplySeeds upserts every seed into the store. Reapplying a file is
// idempotent; entries added interactively are left alone.
func (s *Store) ApplySeeds(seeds []Seed) (added, updated int) {
	for _, seed := range seeds {
		if s.Upsert(seed.Method, seed.Path, []byte(seed.Body)) {
			updated++
		} else {
			added++
		}
	}
	return added, updated
}

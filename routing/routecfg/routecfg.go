package routecfg

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/neovate-digital/namesys/routing"
	"github.com/neovate-digital/namesys/routing/routeregistry"
)

// Config describes how to open one or more routing backends via
// routeregistry.
//
// This provides "config-driven" runtime backend selection.
// Callers still need to link desired backend plugins via blank imports.
//
// WritePolicy values:
// - "all" (default): publish to all backends; reads return the best record
// - "first": publish only to the first backend; reads still consult all
//
// Example:
//
//	{
//	  "write_policy": "all",
//	  "backends": [
//	    {"name":"sqlite", "config":{"sqlite-path":"/var/lib/namesys/records.db"}},
//	    {"name":"grpc", "config":{"grpc-target":"10.0.0.4:7411"}}
//	  ]
//	}
//
// Note: Config values are backend-specific.
// Each backend may document accepted keys (usually mirroring CLI flag names).
type Config struct {
	WritePolicy string          `json:"write_policy,omitempty"`
	Backends    []BackendConfig `json:"backends"`
}

type BackendConfig struct {
	// Name is the routeregistry backend name to open (e.g. "memory", "sqlite", "grpc").
	Name string `json:"name"`
	// ID is an optional stable alias used for identification in errors.
	// If empty, Name is used.
	ID     string            `json:"id,omitempty"`
	Config map[string]string `json:"config,omitempty"`
}

func LoadFile(path string) (Config, error) {
	var cfg Config
	if path == "" {
		return cfg, errors.New("routecfg: empty config path")
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := json.Unmarshal(b, &cfg); err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

func (c Config) Validate() error {
	if len(c.Backends) == 0 {
		return errors.New("routecfg: at least one backend is required")
	}
	seen := make(map[string]struct{}, len(c.Backends))
	for _, b := range c.Backends {
		if b.Name == "" {
			return errors.New("routecfg: backend name is required")
		}
		id := b.Name
		if b.ID != "" {
			id = b.ID
		}
		if _, ok := seen[id]; ok {
			return fmt.Errorf("routecfg: duplicate backend id %q", id)
		}
		seen[id] = struct{}{}
	}
	switch c.WritePolicy {
	case "", "all", "first":
		return nil
	default:
		return fmt.Errorf("routecfg: invalid write_policy %q", c.WritePolicy)
	}
}

// Open opens a routing backend per config.
//
// If preferredBackend is non-empty, backends are reordered so preferredBackend
// is first (and thus used for writes when WritePolicy=="first").
func (c Config) Open(usage routeregistry.Usage, preferredBackend string) (routing.Backend, func() error, error) {
	if err := c.Validate(); err != nil {
		return nil, nil, err
	}

	ordered := append([]BackendConfig(nil), c.Backends...)
	if preferredBackend != "" {
		idx := -1
		for i := range ordered {
			if ordered[i].Name == preferredBackend || ordered[i].ID == preferredBackend {
				idx = i
				break
			}
		}
		if idx < 0 {
			return nil, nil, fmt.Errorf("routecfg: preferred backend %q not found in config", preferredBackend)
		}
		if idx != 0 {
			b := ordered[idx]
			copy(ordered[1:idx+1], ordered[0:idx])
			ordered[0] = b
		}
	}

	named := make([]routing.Named, 0, len(ordered))
	closers := make([]func() error, 0, len(ordered))
	for _, b := range ordered {
		backend, closeFn, err := routeregistry.OpenWithConfig(b.Name, usage, b.Config)
		if err != nil {
			for i := len(closers) - 1; i >= 0; i-- {
				_ = closers[i]()
			}
			return nil, nil, err
		}
		id := b.Name
		if b.ID != "" {
			id = b.ID
		}
		named = append(named, routing.Named{Name: id, Backend: backend})
		if closeFn != nil {
			closers = append(closers, closeFn)
		}
	}

	closeAll := func() error {
		var firstErr error
		for i := len(closers) - 1; i >= 0; i-- {
			if err := closers[i](); err != nil && firstErr == nil {
				firstErr = err
			}
		}
		return firstErr
	}

	if len(named) == 1 {
		return named[0].Backend, closeAll, nil
	}

	policy := routing.WriteAll
	if c.WritePolicy == "first" {
		policy = routing.WriteFirst
	}
	return routing.Fanout{Backends: named, Write: policy}, closeAll, nil
}

// Copyright 2025 The Rivaas Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package config

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/goccy/go-yaml"
	"github.com/hashicorp/consul/api"
)

// Source produces a settings document.
type Source interface {
	Load(ctx context.Context) (map[string]any, error)
}

// Format is a document encoding.
type Format string

// Supported formats.
const (
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
	FormatJSON Format = "json"
)

// ErrUnknownFormat is returned for files whose format cannot be told from
// the extension.
var ErrUnknownFormat = errors.New("unknown config format")

// FormatOf returns the format implied by the extension of path.
func FormatOf(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".toml":
		return FormatTOML, nil
	case ".json":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, path)
	}
}

func decode(format Format, data []byte) (map[string]any, error) {
	m := make(map[string]any)
	var err error
	switch format {
	case FormatYAML:
		err = yaml.Unmarshal(data, &m)
	case FormatTOML:
		err = toml.Unmarshal(data, &m)
	case FormatJSON:
		err = json.Unmarshal(data, &m)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", format, err)
	}

	return m, nil
}

// WithSource adds a custom source.
func WithSource(name string, src Source) Option {
	return func(l *loader) error {
		if src == nil {
			return errors.New("nil source")
		}
		l.sources = append(l.sources, namedSource{name: name, src: src})
		return nil
	}
}

// WithFile adds a file, decoded by extension.
func WithFile(path string) Option {
	return func(l *loader) error {
		format, err := FormatOf(path)
		if err != nil {
			return err
		}
		return WithFileAs(path, format)(l)
	}
}

// WithFileAs adds a file decoded as format.
func WithFileAs(path string, format Format) Option {
	return WithSource("file "+path, &fileSource{path: path, format: format})
}

// WithContent adds an in-memory document.
func WithContent(data []byte, format Format) Option {
	return WithSource("content", &contentSource{data: data, format: format})
}

// WithEnv adds the environment variables starting with prefix.
// DISPATCH_SERVER_ADDR=:9090 with prefix "DISPATCH_" sets server.addr.
func WithEnv(prefix string) Option {
	return WithSource("env "+prefix, &envSource{prefix: prefix, environ: os.Environ})
}

// WithConsul adds a document stored under key in a Consul KV store at
// address ("host:port"; empty uses CONSUL_HTTP_ADDR or the local agent).
// The format follows the key's extension.
func WithConsul(address, key string) Option {
	return func(l *loader) error {
		format, err := FormatOf(key)
		if err != nil {
			return err
		}
		cfg := api.DefaultConfig()
		if address != "" {
			cfg.Address = address
		}
		client, err := api.NewClient(cfg)
		if err != nil {
			return fmt.Errorf("create consul client: %w", err)
		}
		return WithSource("consul "+key, &consulSource{kv: client.KV(), key: key, format: format})(l)
	}
}

type fileSource struct {
	path   string
	format Format
}

func (f *fileSource) Load(context.Context) (map[string]any, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		return nil, err
	}

	return decode(f.format, data)
}

type contentSource struct {
	data   []byte
	format Format
}

func (c *contentSource) Load(context.Context) (map[string]any, error) {
	return decode(c.format, c.data)
}

type envSource struct {
	prefix  string
	environ func() []string
}

func (e *envSource) Load(context.Context) (map[string]any, error) {
	out := make(map[string]any)
	for _, kv := range e.environ() {
		name, value, ok := strings.Cut(kv, "=")
		if !ok || !strings.HasPrefix(name, e.prefix) {
			continue
		}

		var parts []string
		for _, p := range strings.Split(strings.ToLower(strings.TrimPrefix(name, e.prefix)), "_") {
			if p != "" {
				parts = append(parts, p)
			}
		}
		if len(parts) == 0 {
			continue
		}

		cur := out
		for _, p := range parts[:len(parts)-1] {
			next, ok := cur[p].(map[string]any)
			if !ok {
				next = make(map[string]any)
				cur[p] = next
			}
			cur = next
		}
		cur[parts[len(parts)-1]] = strings.TrimSpace(value)
	}

	return out, nil
}

// consulKV is the part of *api.KV used by consulSource.
type consulKV interface {
	Get(key string, q *api.QueryOptions) (*api.KVPair, *api.QueryMeta, error)
}

type consulSource struct {
	kv     consulKV
	key    string
	format Format
}

func (c *consulSource) Load(ctx context.Context) (map[string]any, error) {
	pair, _, err := c.kv.Get(c.key, (&api.QueryOptions{}).WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("get consul key: %w", err)
	}
	if pair == nil {
		return map[string]any{}, nil
	}

	return decode(c.format, pair.Value)
}

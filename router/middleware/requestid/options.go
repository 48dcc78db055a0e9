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

package requestid

// Option configures the request id filter.
type Option func(*config)

type config struct {
	headerName    string
	generator     func() string
	allowClientID bool
	maxLength     int
}

func defaultConfig() *config {
	return &config{
		headerName:    DefaultHeader,
		generator:     generateUUIDv7,
		allowClientID: true,
		maxLength:     128,
	}
}

// WithHeader sets the header read and written.
func WithHeader(name string) Option {
	return func(cfg *config) {
		cfg.headerName = name
	}
}

// WithULID generates 26-character ULIDs.
func WithULID() Option {
	return func(cfg *config) {
		cfg.generator = generateULID
	}
}

// WithKSUID generates 27-character KSUIDs.
func WithKSUID() Option {
	return func(cfg *config) {
		cfg.generator = generateKSUID
	}
}

// WithGenerator sets a custom id generator.
//
//	requestid.New(requestid.WithGenerator(func() string {
//	    return fmt.Sprintf("req-%d", time.Now().UnixNano())
//	}))
func WithGenerator(generator func() string) Option {
	return func(cfg *config) {
		if generator != nil {
			cfg.generator = generator
		}
	}
}

// WithAllowClientID controls whether an id sent by the client is reused.
// Client ids longer than the maximum length are replaced.
func WithAllowClientID(allow bool) Option {
	return func(cfg *config) {
		cfg.allowClientID = allow
	}
}

// WithMaxLength sets the longest client id accepted (default 128).
func WithMaxLength(n int) Option {
	return func(cfg *config) {
		cfg.maxLength = n
	}
}

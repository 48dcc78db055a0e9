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

package logging

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"
)

// LogEntry is a parsed JSON record.
type LogEntry struct {
	Time    time.Time
	Level   string
	Message string
	Attrs   map[string]any
}

// TestHelper captures JSON records in memory for assertions.
type TestHelper struct {
	Logger *Logger
	buf    *lockedBuffer
}

// NewTestHelper returns a debug-level JSON logger writing to memory.
// opts are applied after the defaults.
func NewTestHelper(t testing.TB, opts ...Option) *TestHelper {
	t.Helper()

	buf := &lockedBuffer{}
	all := append([]Option{WithJSONHandler(), WithOutput(buf), WithLevel(LevelDebug)}, opts...)

	return &TestHelper{Logger: MustNew(all...), buf: buf}
}

// Logs parses every captured record.
func (th *TestHelper) Logs() ([]LogEntry, error) {
	return ParseJSONLogEntries(th.buf.Bytes())
}

// LastLog returns the most recent record.
func (th *TestHelper) LastLog() (LogEntry, error) {
	entries, err := th.Logs()
	if err != nil {
		return LogEntry{}, err
	}
	if len(entries) == 0 {
		return LogEntry{}, errors.New("no log entries")
	}

	return entries[len(entries)-1], nil
}

// ContainsLog reports whether any record has message msg.
func (th *TestHelper) ContainsLog(msg string) bool {
	entries, _ := th.Logs()
	for _, e := range entries {
		if e.Message == msg {
			return true
		}
	}

	return false
}

// ContainsAttr reports whether any record has key set to value. Numbers
// are compared as decoded by encoding/json.
func (th *TestHelper) ContainsAttr(key string, value any) bool {
	entries, _ := th.Logs()
	for _, e := range entries {
		if v, ok := e.Attrs[key]; ok && v == value {
			return true
		}
	}

	return false
}

// CountLevel counts records at level ("DEBUG", "INFO", "WARN", "ERROR").
func (th *TestHelper) CountLevel(level string) int {
	entries, _ := th.Logs()
	n := 0
	for _, e := range entries {
		if e.Level == level {
			n++
		}
	}

	return n
}

// Reset discards captured records.
func (th *TestHelper) Reset() { th.buf.Reset() }

// ParseJSONLogEntries parses newline-delimited JSON records.
func ParseJSONLogEntries(data []byte) ([]LogEntry, error) {
	var entries []LogEntry
	sc := bufio.NewScanner(bytes.NewReader(data))
	sc.Buffer(make([]byte, 0, 64<<10), 1<<20)
	for sc.Scan() {
		var raw map[string]any
		if err := json.Unmarshal(sc.Bytes(), &raw); err != nil {
			return nil, err
		}

		e := LogEntry{Attrs: make(map[string]any)}
		for k, v := range raw {
			switch k {
			case slog.TimeKey:
				if s, ok := v.(string); ok {
					e.Time, _ = time.Parse(time.RFC3339Nano, s)
				}
			case slog.LevelKey:
				e.Level, _ = v.(string)
			case slog.MessageKey:
				e.Message, _ = v.(string)
			default:
				e.Attrs[k] = v
			}
		}
		entries = append(entries, e)
	}

	return entries, sc.Err()
}

type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.buf.Write(p)
}

func (b *lockedBuffer) Bytes() []byte {
	b.mu.Lock()
	defer b.mu.Unlock()

	return bytes.Clone(b.buf.Bytes())
}

func (b *lockedBuffer) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.buf.Reset()
}

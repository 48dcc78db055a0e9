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
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

const schemaURL = "settings.schema.json"

// schemaJSON describes the merged settings document. Unknown keys are
// rejected so misspelled settings fail loudly.
const schemaJSON = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "additionalProperties": false,
  "$defs": {
    "duration": {"type": "string", "pattern": "^-?([0-9]+(\\.[0-9]+)?(ns|us|µs|ms|s|m|h))+$"}
  },
  "properties": {
    "service": {
      "type": "object",
      "additionalProperties": false,
      "properties": {
        "name": {"type": "string", "minLength": 1},
        "version": {"type": "string"},
        "env": {"type": "string"}
      }
    },
    "server": {
      "type": "object",
      "additionalProperties": false,
      "properties": {
        "addr": {"type": "string"},
        "h2c": {"type": "boolean"},
        "timeouts": {
          "type": "object",
          "additionalProperties": false,
          "properties": {
            "header": {"$ref": "#/$defs/duration"},
            "read": {"$ref": "#/$defs/duration"},
            "write": {"$ref": "#/$defs/duration"},
            "idle": {"$ref": "#/$defs/duration"},
            "shutdown": {"$ref": "#/$defs/duration"}
          }
        }
      }
    },
    "logging": {
      "type": "object",
      "additionalProperties": false,
      "properties": {
        "level": {"type": "string"},
        "format": {"enum": ["json", "text", "console"]}
      }
    },
    "metrics": {
      "type": "object",
      "additionalProperties": false,
      "properties": {
        "provider": {"enum": ["none", "prometheus", "otlp", "stdout"]},
        "endpoint": {"type": "string"},
        "path": {"type": "string"}
      }
    },
    "tracing": {
      "type": "object",
      "additionalProperties": false,
      "properties": {
        "provider": {"enum": ["none", "stdout", "otlp", "otlp-http"]},
        "endpoint": {"type": "string"},
        "ratio": {"type": "number", "minimum": 0, "maximum": 1}
      }
    },
    "router": {
      "type": "object",
      "additionalProperties": false,
      "properties": {
        "strict": {"type": "boolean"},
        "base": {"type": "string"}
      }
    }
  }
}`

var settingsSchema = sync.OnceValue(func() *jsonschema.Schema {
	doc, err := jsonschema.UnmarshalJSON(strings.NewReader(schemaJSON))
	if err != nil {
		panic("config: parse settings schema: " + err.Error())
	}
	c := jsonschema.NewCompiler()
	if err := c.AddResource(schemaURL, doc); err != nil {
		panic("config: add settings schema: " + err.Error())
	}

	return c.MustCompile(schemaURL)
})

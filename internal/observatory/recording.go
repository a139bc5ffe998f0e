package observatory

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v6"

	"prismdeck/internal/logging"
	"prismdeck/internal/playback"
)

// recordingSchemaJSON is the JSON Schema for recording validation.
// Embedded as a constant to avoid filesystem dependencies.
const recordingSchemaJSON = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "$id": "https://prismdeck.dev/schemas/recording.json",
  "type": "object",
  "required": ["run", "iterations"],
  "properties": {
    "run": {
      "type": "object",
      "required": ["id"],
      "properties": {
        "id": { "type": "string", "minLength": 1 },
        "goal": { "type": "string" },
        "started_at": { "type": "string" },
        "scale": { "type": "number", "exclusiveMinimum": 0 },
        "stop_reason": {
          "type": "string",
          "enum": ["", "threshold", "plateau", "budget", "interrupted"]
        }
      },
      "additionalProperties": false
    },
    "iterations": {
      "type": "array",
      "items": { "$ref": "#/$defs/iteration" }
    }
  },
  "additionalProperties": false,
  "$defs": {
    "iteration": {
      "type": "object",
      "required": ["index", "score"],
      "properties": {
        "index": { "type": "integer", "minimum": 0 },
        "score": { "type": "number" },
        "gates": {
          "type": "object",
          "additionalProperties": { "type": "boolean" }
        },
        "improvement": { "type": "string" },
        "candidates": {
          "type": "array",
          "items": { "$ref": "#/$defs/candidate" }
        },
        "elapsed": { "type": "integer", "minimum": 0 },
        "at": { "type": "string" }
      },
      "additionalProperties": false
    },
    "candidate": {
      "type": "object",
      "required": ["id", "score"],
      "properties": {
        "id": { "type": "string", "minLength": 1 },
        "label": { "type": "string" },
        "score": { "type": "number" },
        "winner": { "type": "boolean" }
      },
      "additionalProperties": false
    }
  }
}`

// Run is the metadata header of a recording.
type Run struct {
	ID         string    `json:"id"`
	Goal       string    `json:"goal,omitempty"`
	StartedAt  time.Time `json:"started_at,omitempty"`
	Scale      float64   `json:"scale,omitempty"`
	StopReason string    `json:"stop_reason,omitempty"`
}

// Recording is one refinement run as the backend wrote it: metadata
// plus the full iteration list.
type Recording struct {
	Run        Run                  `json:"run"`
	Iterations []playback.Iteration `json:"iterations"`
}

// Scale returns the run's declared score scale, or DefaultScale.
func (r *Recording) Scale() float64 {
	if r.Run.Scale > 0 {
		return r.Run.Scale
	}
	return DefaultScale
}

// StopReason returns the run's parsed stop reason.
func (r *Recording) StopReason() StopReason {
	return ParseStopReason(r.Run.StopReason)
}

var (
	schemaOnce sync.Once
	recSchema  *jsonschema.Schema
	schemaErr  error
)

// recordingSchema compiles the embedded schema once.
func recordingSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		c := jsonschema.NewCompiler()
		c.AssertFormat()

		doc, err := jsonschema.UnmarshalJSON(strings.NewReader(recordingSchemaJSON))
		if err != nil {
			schemaErr = fmt.Errorf("unmarshal recording schema: %w", err)
			return
		}
		if err := c.AddResource("https://prismdeck.dev/schemas/recording.json", doc); err != nil {
			schemaErr = fmt.Errorf("add recording schema resource: %w", err)
			return
		}
		recSchema, schemaErr = c.Compile("https://prismdeck.dev/schemas/recording.json")
	})
	return recSchema, schemaErr
}

// LoadRecording reads and validates one .prism.json file. Invalid
// recordings are an error for the caller to surface, never a crash.
func LoadRecording(path string) (*Recording, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read recording: %w", err)
	}
	rec, err := ParseRecording(data)
	if err != nil {
		logging.Audit().RecordingLoad(path, 0, false, err.Error())
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	logging.Audit().RecordingLoad(path, len(rec.Iterations), true, "")
	return rec, nil
}

// ParseRecording validates raw recording bytes against the embedded
// schema, then applies the structural checks the schema cannot
// express.
func ParseRecording(data []byte) (*Recording, error) {
	schema, err := recordingSchema()
	if err != nil {
		return nil, err
	}

	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("parse recording: %w", err)
	}
	if err := schema.Validate(doc); err != nil {
		return nil, fmt.Errorf("recording schema: %s", strings.Join(schemaViolations(err), "; "))
	}

	var rec Recording
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("decode recording: %w", err)
	}
	if err := checkStructure(&rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

// checkStructure enforces what JSON Schema cannot: strictly sequential
// iteration indices from 0, scores inside the declared scale and
// unique candidate ids per iteration.
func checkStructure(rec *Recording) error {
	scale := rec.Scale()
	for i, iter := range rec.Iterations {
		if iter.Index != i {
			return fmt.Errorf("iteration %d: index %d out of sequence", i, iter.Index)
		}
		if iter.Score < 0 || iter.Score > scale {
			return fmt.Errorf("iteration %d: score %.2f outside scale [0, %.2f]", i, iter.Score, scale)
		}
		seen := make(map[string]struct{}, len(iter.Candidates))
		for _, cand := range iter.Candidates {
			if _, exists := seen[cand.ID]; exists {
				return fmt.Errorf("iteration %d: duplicate candidate id %q", i, cand.ID)
			}
			seen[cand.ID] = struct{}{}
			if cand.Score < 0 || cand.Score > scale {
				return fmt.Errorf("iteration %d: candidate %q score %.2f outside scale [0, %.2f]",
					i, cand.ID, cand.Score, scale)
			}
		}
	}
	return nil
}

// schemaViolations flattens a validation error tree into leaf messages
// with their instance locations.
func schemaViolations(err error) []string {
	verr, ok := err.(*jsonschema.ValidationError)
	if !ok {
		return []string{err.Error()}
	}
	return collectViolations(verr)
}

func collectViolations(verr *jsonschema.ValidationError) []string {
	if len(verr.Causes) == 0 {
		loc := "/"
		if len(verr.InstanceLocation) > 0 {
			loc = "/" + strings.Join(verr.InstanceLocation, "/")
		}
		return []string{fmt.Sprintf("%s: %s", loc, verr.Error())}
	}

	var violations []string
	for _, cause := range verr.Causes {
		violations = append(violations, collectViolations(cause)...)
	}
	return violations
}

// ListRecordings returns the recording files under dir, newest first.
// A missing directory is an empty list, not an error.
func ListRecordings(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("list recordings: %w", err)
	}

	type candidate struct {
		path string
		mod  time.Time
	}
	var found []candidate
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), RecordingExt) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		found = append(found, candidate{
			path: filepath.Join(dir, entry.Name()),
			mod:  info.ModTime(),
		})
	}
	sort.Slice(found, func(i, j int) bool {
		if found[i].mod.Equal(found[j].mod) {
			return found[i].path < found[j].path
		}
		return found[i].mod.After(found[j].mod)
	})

	paths := make([]string, len(found))
	for i, c := range found {
		paths[i] = c.path
	}
	return paths, nil
}

// Package validation checks untrusted input before it reaches persistence.
//
// Public form payloads are described by JSON schemas embedded under schemas/
// and compiled once into a Registry. Staff-side DTOs use struct tags checked
// with go-playground/validator. Both report failures as *apperr.ValidationError.
package validation

import (
	"context"
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"path"
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/garnizeh/intake/internal/apperr"
	"github.com/qri-io/jsonschema"
)

// Schema names.
const (
	QuoteRequest = "quote_request"
	Application  = "application"
	Contact      = "contact"
)

// BodyField is the field key used when the payload as a whole is unreadable.
const BodyField = "body"

//go:embed schemas/*.json
var schemaFS embed.FS

// messages replaces library wording with text suitable for form display.
var messages = map[string]map[string]string{
	QuoteRequest: {
		"firstName":   "First name is required",
		"lastName":    "Last name is required",
		"email":       "Please enter a valid email address",
		"phone":       "Please enter a valid phone number",
		"serviceType": "Choose one of Machining, Repair, Fabrication, Modification, Other",
		"urgency":     "Choose one of Low, Medium, High, Critical",
		"description": "Please describe the work in at least 10 characters",
		"fileUrl":     "Attachment link is not a valid URL",
	},
	Application: {
		"fullName": "Full name is required",
		"email":    "Please enter a valid email address",
		"phone":    "Phone number is required",
		"cvUrl":    "Please attach your CV",
		"jobId":    "Job reference is required",
		"message":  "Message is too long",
	},
	Contact: {
		"name":    "Name is required",
		"email":   "Please enter a valid email address",
		"subject": "Subject is required",
		"message": "Message is required",
	},
}

var requiredMsg = regexp.MustCompile(`^"([^"]+)" value is required`)

// Registry holds compiled schemas keyed by name.
type Registry struct {
	mu      sync.RWMutex
	schemas map[string]*jsonschema.Schema
}

// NewRegistry compiles the embedded schemas.
func NewRegistry() (*Registry, error) {
	r := &Registry{}
	if err := r.Load(schemaFS, "schemas"); err != nil {
		return nil, err
	}
	return r, nil
}

// Load compiles every *.json file in dir, replacing the current set.
// The file name without extension is the schema name.
func (r *Registry) Load(fsys fs.FS, dir string) error {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return fmt.Errorf("read schema dir: %w", err)
	}

	compiled := make(map[string]*jsonschema.Schema, len(entries))
	for _, e := range entries {
		if e.IsDir() || path.Ext(e.Name()) != ".json" {
			continue
		}
		b, err := fs.ReadFile(fsys, path.Join(dir, e.Name()))
		if err != nil {
			return fmt.Errorf("read schema %s: %w", e.Name(), err)
		}
		rs := &jsonschema.Schema{}
		if err := json.Unmarshal(b, rs); err != nil {
			return fmt.Errorf("compile schema %s: %w", e.Name(), err)
		}
		compiled[strings.TrimSuffix(e.Name(), ".json")] = rs
	}

	r.mu.Lock()
	r.schemas = compiled
	r.mu.Unlock()
	return nil
}

// Names lists the loaded schema names in order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.schemas))
	for k := range r.schemas {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Validate checks raw against the named schema. It returns nil when the
// payload conforms and a *apperr.ValidationError otherwise.
func (r *Registry) Validate(ctx context.Context, name string, raw []byte) error {
	_, err := r.Normalize(ctx, name, raw)
	return err
}

// Normalize trims surrounding whitespace from every top-level string of raw,
// checks the trimmed document against the named schema and returns it
// re-encoded. Rules such as minLength therefore apply to what gets stored.
func (r *Registry) Normalize(ctx context.Context, name string, raw []byte) ([]byte, error) {
	r.mu.RLock()
	rs, ok := r.schemas[name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unknown schema %q", name)
	}

	ve := apperr.NewValidationError(nil)

	var obj map[string]any
	if err := json.Unmarshal(raw, &obj); err != nil || obj == nil {
		ve.Add(BodyField, "Request body must be a JSON object")
		return nil, ve
	}
	for k, v := range obj {
		if str, ok := v.(string); ok {
			obj[k] = strings.TrimSpace(str)
		}
	}
	norm, err := json.Marshal(obj)
	if err != nil {
		return nil, fmt.Errorf("encode normalized payload: %w", err)
	}

	keyErrs, err := rs.ValidateBytes(ctx, norm)
	if err != nil {
		ve.Add(BodyField, "Request body must be a JSON object")
		return nil, ve
	}
	for _, ke := range keyErrs {
		field := fieldOf(ke)
		ve.Add(field, messageFor(name, field, ke.Message))
	}

	if !ve.Empty() {
		return nil, ve
	}
	return norm, nil
}

func fieldOf(ke jsonschema.KeyError) string {
	p := strings.TrimPrefix(ke.PropertyPath, "/")
	if i := strings.Index(p, "/"); i >= 0 {
		p = p[:i]
	}
	if p != "" {
		return p
	}
	if m := requiredMsg.FindStringSubmatch(ke.Message); m != nil {
		return m[1]
	}
	return BodyField
}

func messageFor(schema, field, fallback string) string {
	if m, ok := messages[schema][field]; ok {
		return m
	}
	return fallback
}

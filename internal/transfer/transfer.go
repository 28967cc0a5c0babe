// Package transfer moves the whole collection in and out as JSON. Export
// builds a dated backup document; import validates a candidate payload and
// stages it so the caller can ask for confirmation before anything is
// replaced.
package transfer

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/xeipuuv/gojsonschema"

	"trek/internal/model"
)

// ErrInvalid marks a payload that failed import validation, as opposed to an
// I/O problem reading it. Check with errors.Is.
var ErrInvalid = errors.New("invalid import")

// Document is an export ready to be written wherever the caller points it.
type Document struct {
	Filename    string
	ContentType string
	Data        []byte
}

// Export renders the items as indented JSON under a dated backup filename,
// <app>_backup_<yyyy-mm-dd>.json.
func Export(items []model.Item, appName string, now time.Time) (Document, error) {
	if items == nil {
		items = []model.Item{}
	}
	data, err := json.MarshalIndent(items, "", "  ")
	if err != nil {
		return Document{}, fmt.Errorf("json marshal: %w", err)
	}
	data = append(data, '\n')
	return Document{
		Filename:    fmt.Sprintf("%s_backup_%s.json", appName, now.UTC().Format("2006-01-02")),
		ContentType: "application/json",
		Data:        data,
	}, nil
}

// importSchema is the structural contract for imported payloads: a JSON
// array whose elements are objects carrying at least a non-empty title.
// Anything else in the elements rides along untouched.
const importSchema = `{
	"type": "array",
	"items": {
		"type": "object",
		"required": ["title"],
		"properties": {
			"title": {"type": "string", "minLength": 1}
		}
	}
}`

var (
	schemaOnce sync.Once
	schema     *gojsonschema.Schema
	schemaErr  error
)

func compiledSchema() (*gojsonschema.Schema, error) {
	schemaOnce.Do(func() {
		schema, schemaErr = gojsonschema.NewSchema(gojsonschema.NewStringLoader(importSchema))
	})
	return schema, schemaErr
}

// Pending is a validated import that has not replaced anything yet. The
// caller shows Count, gets an explicit yes, then calls Apply; dropping the
// value cancels the import with no side effects.
type Pending struct {
	items []model.Item
}

// Replacer swaps a whole collection in one call.
type Replacer interface {
	Replace(items []model.Item)
}

// ParseImport validates data against the import contract and stages it.
// Nothing is written; a rejected payload leaves the collection exactly as
// it was.
func ParseImport(data []byte) (*Pending, error) {
	sch, err := compiledSchema()
	if err != nil {
		return nil, fmt.Errorf("compile import schema: %w", err)
	}
	result, err := sch.Validate(gojsonschema.NewBytesLoader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if !result.Valid() {
		return nil, fmt.Errorf("%w: %s", ErrInvalid, joinSchemaErrors(result.Errors()))
	}

	var items []model.Item
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	// The schema cannot see through whitespace.
	for i := range items {
		if strings.TrimSpace(items[i].Title) == "" {
			return nil, fmt.Errorf("%w: element %d: title must not be blank", ErrInvalid, i)
		}
	}
	return &Pending{items: items}, nil
}

// Count reports how many items the staged import holds.
func (p *Pending) Count() int { return len(p.items) }

// Items returns a copy of the staged items for preview.
func (p *Pending) Items() []model.Item { return model.CloneAll(p.items) }

// Apply replaces the collection with the staged items.
func (p *Pending) Apply(r Replacer) {
	r.Replace(p.items)
}

// joinSchemaErrors flattens validation results, keeping the first few so a
// big broken payload cannot flood the terminal.
func joinSchemaErrors(errs []gojsonschema.ResultError) string {
	msgs := make([]string, 0, len(errs))
	for _, e := range errs {
		msgs = append(msgs, e.String())
	}
	if len(msgs) > 3 {
		msgs = append(msgs[:3], fmt.Sprintf("and %d more", len(msgs)-3))
	}
	return strings.Join(msgs, "; ")
}

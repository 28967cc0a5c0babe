package model

import (
	"encoding/json"
	"time"
)

// Item is the domain model for one tracked learning journey. A single
// struct serves every tracker flavor (topics, nodes, journeys); fields a
// flavor does not use stay empty and are omitted from the stored JSON.
type Item struct {
	ID           int64     `json:"id"`
	Title        string    `json:"title"`
	Status       string    `json:"status,omitempty"`
	StartDate    string    `json:"startDate,omitempty"`
	TargetDate   string    `json:"targetDate,omitempty"`
	Progress     *int      `json:"progress,omitempty"`
	Category     string    `json:"category,omitempty"`
	Destinations string    `json:"destinations,omitempty"`
	Resources    string    `json:"resources,omitempty"`
	Notes        string    `json:"notes,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`

	// Extra holds fields we do not recognize. Imported documents may carry
	// their own keys; they ride along unchanged through save, load and export.
	Extra map[string]json.RawMessage `json:"-"`
}

// itemAlias strips the custom JSON methods so (un)marshaling the known
// fields cannot recurse.
type itemAlias Item

var knownItemFields = map[string]struct{}{
	"id":           {},
	"title":        {},
	"status":       {},
	"startDate":    {},
	"targetDate":   {},
	"progress":     {},
	"category":     {},
	"destinations": {},
	"resources":    {},
	"notes":        {},
	"createdAt":    {},
}

func (it Item) MarshalJSON() ([]byte, error) {
	base, err := json.Marshal(itemAlias(it))
	if err != nil {
		return nil, err
	}
	if len(it.Extra) == 0 {
		return base, nil
	}
	var merged map[string]json.RawMessage
	if err := json.Unmarshal(base, &merged); err != nil {
		return nil, err
	}
	for k, v := range it.Extra {
		if _, known := knownItemFields[k]; known {
			continue
		}
		merged[k] = v
	}
	return json.Marshal(merged)
}

func (it *Item) UnmarshalJSON(data []byte) error {
	var a itemAlias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	for k := range knownItemFields {
		delete(raw, k)
	}
	if len(raw) > 0 {
		a.Extra = raw
	}
	*it = Item(a)
	return nil
}

// Clone returns a deep copy. The store only ever hands out clones, so
// callers cannot reach its internal state through a returned item.
func (it Item) Clone() Item {
	out := it
	if it.Progress != nil {
		p := *it.Progress
		out.Progress = &p
	}
	if len(it.Extra) > 0 {
		out.Extra = make(map[string]json.RawMessage, len(it.Extra))
		for k, v := range it.Extra {
			out.Extra[k] = append(json.RawMessage(nil), v...)
		}
	}
	return out
}

// CloneAll deep-copies a whole collection.
func CloneAll(items []Item) []Item {
	out := make([]Item, len(items))
	for i, it := range items {
		out[i] = it.Clone()
	}
	return out
}

// Field returns the named field as text. Unknown names and unset values
// read as "", so lookups over sparse items never fail.
func (it Item) Field(name string) string {
	switch name {
	case "title":
		return it.Title
	case "status":
		return it.Status
	case "startDate":
		return it.StartDate
	case "targetDate":
		return it.TargetDate
	case "category":
		return it.Category
	case "destinations":
		return it.Destinations
	case "resources":
		return it.Resources
	case "notes":
		return it.Notes
	}
	return ""
}

// SearchableFields lists the names Field understands, so the config layer
// can reject typos in the search.fields option.
var SearchableFields = []string{
	"title", "status", "category", "destinations", "resources", "notes",
	"startDate", "targetDate",
}

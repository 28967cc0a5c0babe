package model

// Payload carries the caller-settable fields for creating an item.
// ID and CreatedAt are stamped by the store, never by callers.
type Payload struct {
	Title        string
	Status       string
	StartDate    string
	TargetDate   string
	Progress     *int
	Category     string
	Destinations string
	Resources    string
	Notes        string
}

// Item builds the unstamped item for this payload.
func (p Payload) Item() Item {
	it := Item{
		Title:        p.Title,
		Status:       p.Status,
		StartDate:    p.StartDate,
		TargetDate:   p.TargetDate,
		Category:     p.Category,
		Destinations: p.Destinations,
		Resources:    p.Resources,
		Notes:        p.Notes,
	}
	if p.Progress != nil {
		v := *p.Progress
		it.Progress = &v
	}
	return it
}

// Patch is a partial update. Nil fields are absent from the payload and
// leave the item untouched; set fields overwrite. A merge never drops a
// field the patch does not name.
type Patch struct {
	Title        *string
	Status       *string
	StartDate    *string
	TargetDate   *string
	Progress     *int
	Category     *string
	Destinations *string
	Resources    *string
	Notes        *string
}

// Apply merges the patch onto the item.
func (p Patch) Apply(it *Item) {
	if p.Title != nil {
		it.Title = *p.Title
	}
	if p.Status != nil {
		it.Status = *p.Status
	}
	if p.StartDate != nil {
		it.StartDate = *p.StartDate
	}
	if p.TargetDate != nil {
		it.TargetDate = *p.TargetDate
	}
	if p.Progress != nil {
		v := *p.Progress
		it.Progress = &v
	}
	if p.Category != nil {
		it.Category = *p.Category
	}
	if p.Destinations != nil {
		it.Destinations = *p.Destinations
	}
	if p.Resources != nil {
		it.Resources = *p.Resources
	}
	if p.Notes != nil {
		it.Notes = *p.Notes
	}
}

// IsZero reports whether the patch names no fields at all.
func (p Patch) IsZero() bool {
	return p.Title == nil && p.Status == nil && p.StartDate == nil &&
		p.TargetDate == nil && p.Progress == nil && p.Category == nil &&
		p.Destinations == nil && p.Resources == nil && p.Notes == nil
}

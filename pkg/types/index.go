package types

import "time"

// ProjectIndex is an immutable snapshot of known projects.
//
// A snapshot is never modified after NewProjectIndex returns; rebuilding the
// index produces a new snapshot with a higher generation. Snapshots are shared
// by pointer and are safe for concurrent reads without locking.
type ProjectIndex struct {
	Generation uint64
	BuiltAt    time.Time

	order   []string
	records map[string]ProjectRecord
}

// NewProjectIndex creates a snapshot from records, keeping their order.
// Later records with an ID already present are ignored.
func NewProjectIndex(generation uint64, builtAt time.Time, records []ProjectRecord) *ProjectIndex {
	idx := &ProjectIndex{
		Generation: generation,
		BuiltAt:    builtAt,
		order:      make([]string, 0, len(records)),
		records:    make(map[string]ProjectRecord, len(records)),
	}
	for _, r := range records {
		if _, exists := idx.records[r.ID]; exists {
			continue
		}
		idx.order = append(idx.order, r.ID)
		idx.records[r.ID] = r
	}
	return idx
}

// EmptyIndex returns a generation-zero snapshot without projects
func EmptyIndex() *ProjectIndex {
	return NewProjectIndex(0, time.Time{}, nil)
}

// Get returns the record with the given ID
func (p *ProjectIndex) Get(id string) (ProjectRecord, bool) {
	if p == nil {
		return ProjectRecord{}, false
	}
	r, ok := p.records[id]
	return r, ok
}

// Contains reports whether id is part of this snapshot
func (p *ProjectIndex) Contains(id string) bool {
	_, ok := p.Get(id)
	return ok
}

// Len returns the number of projects
func (p *ProjectIndex) Len() int {
	if p == nil {
		return 0
	}
	return len(p.order)
}

// Records returns a copy of all records in index order
func (p *ProjectIndex) Records() []ProjectRecord {
	if p == nil {
		return nil
	}
	out := make([]ProjectRecord, 0, len(p.order))
	for _, id := range p.order {
		out = append(out, p.records[id])
	}
	return out
}

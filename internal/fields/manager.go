// Package fields implements the reorderable field list shared by the dynamic
// form builders (contact form, admin category editors).
package fields

import (
	"errors"
	"strings"
	"sync"

	"github.com/oklog/ulid/v2"

	domain "github.com/lumina-studio/api/internal/domain"
)

// ErrFieldNotFound is returned when an identifier does not resolve.
var ErrFieldNotFound = errors.New("field not found")

// FieldPatch carries the optional fields of a partial field update. Order is
// only touched when explicitly included.
type FieldPatch struct {
	Label       *string
	Value       *string
	Type        *string
	Required    *bool
	Order       *int
	Placeholder *string
	Icon        *string
}

// Manager maintains an ordered collection of form fields. Only MoveViaDrag
// guarantees a contiguous 1-based order sequence; Remove deliberately leaves
// gaps so later reinsertions keep their relative ranking.
type Manager struct {
	mu     sync.Mutex
	fields []domain.FormField
	drag   dragState
	idGen  func() string
}

type dragState struct {
	active   bool
	sourceID string
}

// Option customises Manager construction.
type Option func(*Manager)

// WithIDGenerator overrides the identifier generator.
func WithIDGenerator(idGen func() string) Option {
	return func(m *Manager) {
		if idGen != nil {
			m.idGen = idGen
		}
	}
}

// NewManager constructs an empty field manager.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		idGen: func() string { return ulid.Make().String() },
	}
	for _, opt := range opts {
		if opt != nil {
			opt(m)
		}
	}
	return m
}

// Fields returns a copy of the current fields in slice order.
func (m *Manager) Fields() []domain.FormField {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.FormField, len(m.fields))
	copy(out, m.fields)
	return out
}

// Add appends the field with order = length+1 and returns it with its
// assigned identifier.
func (m *Manager) Add(field domain.FormField) domain.FormField {
	m.mu.Lock()
	defer m.mu.Unlock()

	if strings.TrimSpace(field.ID) == "" {
		field.ID = m.idGen()
	}
	field.Order = len(m.fields) + 1
	m.fields = append(m.fields, field)
	return field
}

// Update merges the patch onto the matching field. Order stays untouched
// unless the patch includes it.
func (m *Manager) Update(id string, patch FieldPatch) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	idx := m.indexOf(id)
	if idx < 0 {
		return ErrFieldNotFound
	}

	field := &m.fields[idx]
	if patch.Label != nil {
		field.Label = *patch.Label
	}
	if patch.Value != nil {
		field.Value = *patch.Value
	}
	if patch.Type != nil {
		field.Type = *patch.Type
	}
	if patch.Required != nil {
		field.Required = *patch.Required
	}
	if patch.Order != nil {
		field.Order = *patch.Order
	}
	if patch.Placeholder != nil {
		field.Placeholder = *patch.Placeholder
	}
	if patch.Icon != nil {
		field.Icon = *patch.Icon
	}
	return nil
}

// Remove deletes the field. Remaining order values are NOT renumbered; the
// gap is preserved until the next MoveViaDrag.
func (m *Manager) Remove(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	idx := m.indexOf(id)
	if idx < 0 {
		return ErrFieldNotFound
	}
	m.fields = append(m.fields[:idx], m.fields[idx+1:]...)
	return nil
}

// BeginDrag transitions Idle -> Dragging(sourceID).
func (m *Manager) BeginDrag(sourceID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.indexOf(sourceID) < 0 {
		return ErrFieldNotFound
	}
	m.drag = dragState{active: true, sourceID: sourceID}
	return nil
}

// CancelDrag returns to Idle without touching the order.
func (m *Manager) CancelDrag() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.drag = dragState{}
}

// Dragging reports the active drag source, if any.
func (m *Manager) Dragging() (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.drag.sourceID, m.drag.active
}

// Drop completes an active drag onto targetID. Dropping on the source itself
// is a no-op; either way the manager returns to Idle.
func (m *Manager) Drop(targetID string) error {
	m.mu.Lock()
	source := m.drag
	m.drag = dragState{}
	m.mu.Unlock()

	if !source.active {
		return errors.New("no drag in progress")
	}
	if source.sourceID == targetID {
		return nil
	}
	return m.MoveViaDrag(source.sourceID, targetID)
}

// MoveViaDrag removes sourceID from its position, reinserts it immediately
// before targetID, then renumbers every field to a contiguous 1-based order.
// This is the only operation that guarantees contiguity.
func (m *Manager) MoveViaDrag(sourceID, targetID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	srcIdx := m.indexOf(sourceID)
	if srcIdx < 0 {
		return ErrFieldNotFound
	}
	if sourceID == targetID {
		return nil
	}

	moved := m.fields[srcIdx]
	rest := append(append([]domain.FormField{}, m.fields[:srcIdx]...), m.fields[srcIdx+1:]...)

	dstIdx := -1
	for i, field := range rest {
		if field.ID == targetID {
			dstIdx = i
			break
		}
	}
	if dstIdx < 0 {
		return ErrFieldNotFound
	}

	reordered := make([]domain.FormField, 0, len(rest)+1)
	reordered = append(reordered, rest[:dstIdx]...)
	reordered = append(reordered, moved)
	reordered = append(reordered, rest[dstIdx:]...)

	for i := range reordered {
		reordered[i].Order = i + 1
	}
	m.fields = reordered
	return nil
}

func (m *Manager) indexOf(id string) int {
	for i, field := range m.fields {
		if field.ID == id {
			return i
		}
	}
	return -1
}

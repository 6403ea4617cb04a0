package drill

import (
	"log/slog"
	"sync"

	"github.com/teslashibe/go-coach/internal/log"
)

// Change describes a drill transition. Previous and Current are nil when no
// drill was or is selected.
type Change struct {
	Previous *Drill
	Current  *Drill
	View     View
}

// CurrentID returns the selected drill id, or "" after a deselect.
func (c Change) CurrentID() string {
	if c.Current == nil {
		return ""
	}
	return c.Current.ID
}

// Listener is called synchronously for every transition.
type Listener func(Change)

// Machine tracks the single active drill. Selection always replaces the
// whole drill; there are no intermediate states.
type Machine struct {
	mu        sync.Mutex
	catalog   *Catalog
	general   *Drill
	active    *Drill
	listeners []Listener
	logger    *slog.Logger
}

// NewMachine creates a machine over catalog with nothing selected.
func NewMachine(catalog *Catalog) *Machine {
	return &Machine{
		catalog: catalog,
		general: General(),
		logger:  log.Component("drill"),
	}
}

// OnChange registers a listener.
func (m *Machine) OnChange(l Listener) {
	m.mu.Lock()
	m.listeners = append(m.listeners, l)
	m.mu.Unlock()
}

// Catalog returns the drill catalog.
func (m *Machine) Catalog() *Catalog { return m.catalog }

// Select makes id the active drill. Unknown ids leave the state unchanged.
func (m *Machine) Select(id string) (*Drill, error) {
	d, err := m.catalog.Get(id)
	if err != nil {
		return nil, err
	}
	m.transition(d)
	m.logger.Info("drill selected", "drill", id, "view", d.View)
	return d, nil
}

// Deselect returns to the generic golf-stance rules and front view.
func (m *Machine) Deselect() {
	m.transition(nil)
	m.logger.Info("drill deselected")
}

func (m *Machine) transition(next *Drill) {
	m.mu.Lock()
	change := Change{Previous: m.active, Current: next, View: Front}
	if next != nil {
		change.View = next.View
	}
	m.active = next
	listeners := append([]Listener(nil), m.listeners...)
	m.mu.Unlock()

	for _, l := range listeners {
		l(change)
	}
}

// Active returns the selected drill, or nil.
func (m *Machine) Active() *Drill {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.active
}

// ActiveID returns the selected drill id, or "".
func (m *Machine) ActiveID() string {
	if d := m.Active(); d != nil {
		return d.ID
	}
	return ""
}

// Current returns the rule set to evaluate frames with: the active drill,
// or the generic golf-stance rules when none is selected.
func (m *Machine) Current() *Drill {
	if d := m.Active(); d != nil {
		return d
	}
	return m.general
}

// View returns the camera framing for the current state.
func (m *Machine) View() View {
	if d := m.Active(); d != nil {
		return d.View
	}
	return Front
}

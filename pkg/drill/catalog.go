package drill

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

// ErrUnknownDrill is returned for ids not in the catalog.
var ErrUnknownDrill = errors.New("unknown drill")

// Catalog holds the selectable drills.
type Catalog struct {
	mu     sync.RWMutex
	drills map[string]*Drill
}

// NewCatalog creates an empty catalog.
func NewCatalog() *Catalog {
	return &Catalog{drills: make(map[string]*Drill)}
}

// Builtin returns a catalog with the four exercises and five golf drills.
func Builtin() *Catalog {
	c := NewCatalog()
	for _, d := range []*Drill{
		squat(), pushup(), bicepCurl(), golfSwing(),
		wallBack(), hipTwist(), airSwing(), shoulderTilt(), balance(),
	} {
		c.Register(d)
	}
	return c
}

// Register adds or replaces a drill.
func (c *Catalog) Register(d *Drill) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.drills[d.ID] = d
}

// Get returns the drill with the given id.
func (c *Catalog) Get(id string) (*Drill, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	d, ok := c.drills[id]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownDrill, id)
	}
	return d, nil
}

// List returns all drill ids sorted alphabetically.
func (c *Catalog) List() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	ids := make([]string, 0, len(c.drills))
	for id := range c.drills {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Infos returns the catalog view of every drill, sorted by id.
func (c *Catalog) Infos() []Info {
	ids := c.List()
	out := make([]Info, 0, len(ids))
	for _, id := range ids {
		if d, err := c.Get(id); err == nil {
			out = append(out, d.Info())
		}
	}
	return out
}

// Count returns the number of drills.
func (c *Catalog) Count() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.drills)
}

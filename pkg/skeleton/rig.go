package skeleton

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"gonum.org/v1/gonum/spatial/r3"
)

var (
	ErrEmptyRig    = errors.New("skeleton: rig has no root node")
	ErrUnknownKind = errors.New("skeleton: unknown node kind")
)

// RigNode is the serialized form of a scene node.
type RigNode struct {
	Name     string     `json:"name"`
	Kind     string     `json:"kind"`
	Position [3]float64 `json:"position"`
	Children []RigNode  `json:"children,omitempty"`
}

// Rig is the serialized form of an avatar: its node hierarchy plus the
// uniform scale the host applies on load.
type Rig struct {
	Name  string   `json:"name"`
	Scale float64  `json:"scale,omitempty"`
	Root  *RigNode `json:"root"`
}

// LoadRig decodes a rig description.
func LoadRig(r io.Reader, source string) (*Model, error) {
	var rig Rig
	if err := json.NewDecoder(r).Decode(&rig); err != nil {
		return nil, fmt.Errorf("skeleton: decode %s: %w", source, err)
	}
	if rig.Root == nil {
		return nil, fmt.Errorf("%w: %s", ErrEmptyRig, source)
	}
	root, err := buildNode(*rig.Root)
	if err != nil {
		return nil, fmt.Errorf("skeleton: %s: %w", source, err)
	}
	if rig.Scale > 0 {
		root.SetScale(r3.Vec{X: rig.Scale, Y: rig.Scale, Z: rig.Scale})
	}
	return NewModel(source, root), nil
}

// LoadRigFile reads a rig description from disk.
func LoadRigFile(path string) (*Model, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("skeleton: open rig: %w", err)
	}
	defer f.Close()
	return LoadRig(f, path)
}

// LoadFirst tries each path in order and returns the first rig that loads.
// When every path fails the joined errors are returned.
func LoadFirst(paths ...string) (*Model, error) {
	var errs []error
	for _, p := range paths {
		m, err := LoadRigFile(p)
		if err == nil {
			return m, nil
		}
		errs = append(errs, err)
	}
	if len(errs) == 0 {
		return nil, ErrEmptyRig
	}
	return nil, errors.Join(errs...)
}

func buildNode(n RigNode) (*Object, error) {
	kind := KindGroup
	if n.Kind != "" {
		k, ok := ParseKind(n.Kind)
		if !ok {
			return nil, fmt.Errorf("%w %q on %q", ErrUnknownKind, n.Kind, n.Name)
		}
		kind = k
	}
	o := NewObject(n.Name, kind).At(n.Position[0], n.Position[1], n.Position[2])
	for _, c := range n.Children {
		child, err := buildNode(c)
		if err != nil {
			return nil, err
		}
		o.Add(child)
	}
	return o, nil
}

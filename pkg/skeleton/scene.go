// Package skeleton models the avatar scene graph the retargeting engine
// drives, and resolves canonical joints to the avatar's actual bones.
//
// The scene host owns the nodes. Everything here holds references only.
package skeleton

import (
	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"
)

// Kind classifies scene nodes.
type Kind int

const (
	KindGroup Kind = iota
	KindBone
	KindSkinnedMesh
	KindMesh
)

var kindNames = map[Kind]string{
	KindGroup:       "group",
	KindBone:        "bone",
	KindSkinnedMesh: "skinned_mesh",
	KindMesh:        "mesh",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return "unknown"
}

// ParseKind maps a kind name back to its value.
func ParseKind(s string) (Kind, bool) {
	for k, name := range kindNames {
		if name == s {
			return k, true
		}
	}
	return KindGroup, false
}

// BoneLike reports whether the node can carry a skeleton joint.
func (k Kind) BoneLike() bool {
	return k == KindBone || k == KindSkinnedMesh
}

// Node is a transformable scene node.
type Node interface {
	Name() string
	Kind() Kind
	Position() r3.Vec
	SetPosition(r3.Vec)
	Rotation() quat.Number
	SetRotation(quat.Number)
	Scale() r3.Vec
	SetScale(r3.Vec)
	Children() []Node
}

// Avatar is a loaded model.
type Avatar interface {
	Root() Node
	// Fallback reports whether this is the primitive stand-in avatar.
	Fallback() bool
}

// Walk visits n and its descendants depth-first in pre-order. Returning false
// from fn stops the walk.
func Walk(n Node, fn func(Node) bool) bool {
	if n == nil {
		return true
	}
	if !fn(n) {
		return false
	}
	for _, c := range n.Children() {
		if !Walk(c, fn) {
			return false
		}
	}
	return true
}

// Object is the in-memory Node implementation.
type Object struct {
	name     string
	kind     Kind
	position r3.Vec
	rotation quat.Number
	scale    r3.Vec
	children []*Object
}

// NewObject returns a node at the origin with identity rotation and unit scale.
func NewObject(name string, kind Kind) *Object {
	return &Object{
		name:     name,
		kind:     kind,
		rotation: Identity,
		scale:    r3.Vec{X: 1, Y: 1, Z: 1},
	}
}

// Add appends children and returns the receiver for chaining.
func (o *Object) Add(children ...*Object) *Object {
	o.children = append(o.children, children...)
	return o
}

// At sets the local position and returns the receiver.
func (o *Object) At(x, y, z float64) *Object {
	o.position = r3.Vec{X: x, Y: y, Z: z}
	return o
}

func (o *Object) Name() string              { return o.name }
func (o *Object) Kind() Kind                { return o.kind }
func (o *Object) Position() r3.Vec          { return o.position }
func (o *Object) SetPosition(p r3.Vec)      { o.position = p }
func (o *Object) Rotation() quat.Number     { return o.rotation }
func (o *Object) SetRotation(q quat.Number) { o.rotation = q }
func (o *Object) Scale() r3.Vec             { return o.scale }
func (o *Object) SetScale(s r3.Vec)         { o.scale = s }

func (o *Object) Children() []Node {
	out := make([]Node, len(o.children))
	for i, c := range o.children {
		out[i] = c
	}
	return out
}

// Model is the in-memory Avatar implementation.
type Model struct {
	Source   string
	root     *Object
	fallback bool
}

// NewModel wraps a root node.
func NewModel(source string, root *Object) *Model {
	return &Model{Source: source, root: root}
}

func (m *Model) Root() Node     { return m.root }
func (m *Model) Fallback() bool { return m.fallback }

// Find returns the first node named name in traversal order.
func (m *Model) Find(name string) Node {
	var found Node
	Walk(m.root, func(n Node) bool {
		if n.Name() == name {
			found = n
			return false
		}
		return true
	})
	return found
}

// Fallback builds the primitive stand-in avatar: a body box and a head
// sphere with no bones. It always drives in direct-mesh mode.
func Fallback() *Model {
	root := NewObject("fallback", KindGroup).Add(
		NewObject("body", KindMesh).At(0, 1.0, 0),
		NewObject("head", KindMesh).At(0, 1.8, 0),
	)
	return &Model{Source: "fallback", root: root, fallback: true}
}

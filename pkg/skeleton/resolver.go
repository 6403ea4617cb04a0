package skeleton

import (
	"log/slog"
	"strings"

	"github.com/teslashibe/go-coach/internal/log"
)

// DefaultHeightThreshold bounds the local Y of positional leg candidates.
const DefaultHeightThreshold = 0.5

// Strategy records which stage found a joint.
type Strategy int

const (
	Unresolved Strategy = iota
	ByAlias
	BySubstring
	ByPosition
)

func (s Strategy) String() string {
	switch s {
	case ByAlias:
		return "alias"
	case BySubstring:
		return "substring"
	case ByPosition:
		return "position"
	default:
		return "unresolved"
	}
}

// Resolution is the tagged result of resolving one joint.
type Resolution struct {
	Joint    Joint
	Node     Node
	Strategy Strategy
}

// Found reports whether a node was resolved.
func (r Resolution) Found() bool {
	return r.Node != nil
}

// Options tune a single lookup.
type Options struct {
	// Positional enables the height heuristic for leg joints.
	Positional bool
}

type cacheKey struct {
	joint      Joint
	positional bool
}

// Resolver maps canonical joints to an avatar's nodes. Results, including
// misses, are cached for the lifetime of the avatar.
//
// Resolver is not safe for concurrent use; the owning session serializes it.
type Resolver struct {
	avatar    Avatar
	byName    map[string]Node
	cache     map[cacheKey]Resolution
	warned    map[Joint]bool
	threshold float64
	logger    *slog.Logger
	onMiss    func(Joint)
}

// ResolverOption configures a Resolver.
type ResolverOption func(*Resolver)

// WithHeightThreshold sets the positional candidate height bound.
func WithHeightThreshold(h float64) ResolverOption {
	return func(r *Resolver) { r.threshold = h }
}

// WithLogger sets the logger used for unresolved-joint warnings.
func WithLogger(l *slog.Logger) ResolverOption {
	return func(r *Resolver) { r.logger = l }
}

// WithMissHook is called once per joint the first time it fails to resolve.
func WithMissHook(fn func(Joint)) ResolverOption {
	return func(r *Resolver) { r.onMiss = fn }
}

// NewResolver creates a resolver for avatar, which may be nil until a model loads.
func NewResolver(avatar Avatar, opts ...ResolverOption) *Resolver {
	r := &Resolver{
		threshold: DefaultHeightThreshold,
		logger:    log.Component("skeleton"),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.Reset(avatar)
	return r
}

// Avatar returns the current avatar.
func (r *Resolver) Avatar() Avatar {
	return r.avatar
}

// Reset switches to a new avatar and drops every cached result and warning.
func (r *Resolver) Reset(avatar Avatar) {
	r.avatar = avatar
	r.byName = nil
	r.cache = make(map[cacheKey]Resolution)
	r.warned = make(map[Joint]bool)
}

// Resolve looks j up by alias and substring.
func (r *Resolver) Resolve(j Joint) Resolution {
	return r.ResolveWith(j, Options{})
}

// ResolveWith runs the staged lookup: exact alias, case-insensitive
// substring, then (legs only, when enabled) the positional heuristic.
func (r *Resolver) ResolveWith(j Joint, opts Options) Resolution {
	if r.avatar == nil || r.avatar.Root() == nil {
		return Resolution{Joint: j}
	}
	positional := opts.Positional && j.Leg()
	key := cacheKey{joint: j, positional: positional}
	if res, ok := r.cache[key]; ok {
		return res
	}

	res := r.byAlias(j)
	if !res.Found() {
		res = r.bySubstring(j)
	}
	if !res.Found() && positional {
		res = r.byPosition(j)
	}

	// A miss is reported only after every enabled stage has failed.
	r.cache[key] = res
	if !res.Found() {
		r.miss(j)
	}
	return res
}

// CountResolved reports how many of the joints resolve without the positional stage.
func (r *Resolver) CountResolved(joints ...Joint) int {
	n := 0
	for _, j := range joints {
		if r.Resolve(j).Found() {
			n++
		}
	}
	return n
}

func (r *Resolver) miss(j Joint) {
	if r.warned[j] {
		return
	}
	r.warned[j] = true
	r.logger.Warn("joint not found in avatar", "joint", string(j))
	if r.onMiss != nil {
		r.onMiss(j)
	}
}

func (r *Resolver) index() map[string]Node {
	if r.byName != nil {
		return r.byName
	}
	r.byName = make(map[string]Node)
	Walk(r.avatar.Root(), func(n Node) bool {
		if n.Kind().BoneLike() {
			if _, dup := r.byName[n.Name()]; !dup {
				r.byName[n.Name()] = n
			}
		}
		return true
	})
	return r.byName
}

func (r *Resolver) byAlias(j Joint) Resolution {
	idx := r.index()
	for _, name := range aliases[j] {
		if n, ok := idx[name]; ok {
			return Resolution{Joint: j, Node: n, Strategy: ByAlias}
		}
	}
	return Resolution{Joint: j}
}

func (r *Resolver) bySubstring(j Joint) Resolution {
	lower := make([]string, 0, len(aliases[j]))
	for _, a := range aliases[j] {
		lower = append(lower, strings.ToLower(a))
	}

	res := Resolution{Joint: j}
	Walk(r.avatar.Root(), func(n Node) bool {
		if !n.Kind().BoneLike() {
			return true
		}
		name := strings.ToLower(n.Name())
		for _, a := range lower {
			if strings.Contains(name, a) {
				res.Node, res.Strategy = n, BySubstring
				return false
			}
		}
		return true
	})
	return res
}

// byPosition picks leg proxies among low nodes: the first candidate in
// traversal order stands in for the left leg, the second for the right.
// Fewer than two candidates resolves neither leg.
func (r *Resolver) byPosition(j Joint) Resolution {
	root := r.avatar.Root()
	var low []Node
	Walk(root, func(n Node) bool {
		if n != root && n.Position().Y < r.threshold {
			low = append(low, n)
		}
		return true
	})

	if len(low) < 2 {
		return Resolution{Joint: j}
	}
	i := 0
	if j.Right() {
		i = 1
	}
	return Resolution{Joint: j, Node: low[i], Strategy: ByPosition}
}

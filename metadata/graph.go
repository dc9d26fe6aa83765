package metadata

import (
	"fmt"

	"github.com/bmx-go/bmx/datamodel"
	"github.com/bmx-go/bmx/errs"
	"github.com/bmx-go/bmx/klv"
)

// Graph is the in-memory header-metadata instance for one MXF file: the
// Preface and every set strongly reachable from it, indexed by InstanceUID
// for reference resolution.
type Graph struct {
	Registry *datamodel.Registry

	sets    []*Set
	byInstance map[[16]byte]*Set
	preface *Set
}

// NewGraph creates an empty graph validated against registry.
func NewGraph(registry *datamodel.Registry) *Graph {
	return &Graph{
		Registry:   registry,
		byInstance: make(map[[16]byte]*Set),
	}
}

// Add registers a set in the graph, indexing it for reference resolution.
// The first Preface-keyed set added becomes the graph's root.
func (g *Graph) Add(s *Set) error {
	if _, dup := g.byInstance[s.InstanceUID]; dup {
		return fmt.Errorf("%w: %x", errs.ErrDuplicateInstanceUID, s.InstanceUID)
	}
	g.sets = append(g.sets, s)
	g.byInstance[s.InstanceUID] = s
	if g.Registry.IsSubclassOf(s.Key, datamodel.PrefaceKey) && g.preface == nil {
		g.preface = s
	}
	return nil
}

// Preface returns the graph's root set, if one has been added.
func (g *Graph) Preface() (*Set, bool) {
	return g.preface, g.preface != nil
}

// Sets returns every set in the graph, in the order they were added.
func (g *Graph) Sets() []*Set {
	return g.sets
}

// Resolve looks up a set by InstanceUID, the target of both strong and weak
// references; the two reference kinds share the same wire shape and differ
// only in whether the target must exist for the graph to be considered
// structurally valid.
func (g *Graph) Resolve(instanceUID [16]byte) (*Set, bool) {
	s, ok := g.byInstance[instanceUID]
	return s, ok
}

// ResolveStrongRef resolves a strong reference item, returning
// ErrUnresolvedRef if the target set is missing from the graph.
func (g *Graph) ResolveStrongRef(item *Item) (*Set, error) {
	ref, err := item.StrongRef()
	if err != nil {
		return nil, err
	}
	s, ok := g.Resolve(ref)
	if !ok {
		return nil, fmt.Errorf("%w: %x", errs.ErrUnresolvedRef, ref)
	}
	return s, nil
}

// ResolveStrongRefArray resolves a batch of strong references in order.
func (g *Graph) ResolveStrongRefArray(item *Item) ([]*Set, error) {
	refs, err := item.StrongRefArray()
	if err != nil {
		return nil, err
	}
	out := make([]*Set, len(refs))
	for i, ref := range refs {
		s, ok := g.Resolve(ref)
		if !ok {
			return nil, fmt.Errorf("%w: %x", errs.ErrUnresolvedRef, ref)
		}
		out[i] = s
	}
	return out, nil
}

// SetsOfType returns every set in the graph whose key is key or a subclass
// of key ("is-subclass-of"), e.g. every StructuralComponent
// regardless of concrete variant.
func (g *Graph) SetsOfType(key klv.Key) []*Set {
	var out []*Set
	for _, s := range g.sets {
		if g.Registry.IsSubclassOf(s.Key, key) {
			out = append(out, s)
		}
	}
	return out
}

// CheckAcyclic walks every strong reference reachable from the Preface and
// reports ErrCycle if a set is revisited before the walk completes: the
// strong-reference graph must be a DAG rooted at Preface.
func (g *Graph) CheckAcyclic() error {
	preface, ok := g.Preface()
	if !ok {
		return nil
	}
	visiting := make(map[[16]byte]bool)
	visited := make(map[[16]byte]bool)
	var walk func(s *Set) error
	walk = func(s *Set) error {
		if visiting[s.InstanceUID] {
			return fmt.Errorf("%w: at %x", errs.ErrCycle, s.InstanceUID)
		}
		if visited[s.InstanceUID] {
			return nil
		}
		visiting[s.InstanceUID] = true
		for _, it := range s.Items() {
			def, ok := g.Registry.ItemDef(it.Key)
			if !ok || (def.Type != datamodel.TypeStrongRef && def.Type != datamodel.TypeStrongRefArray) {
				continue
			}
			var refs [][16]byte
			var err error
			if def.Type == datamodel.TypeStrongRef {
				var r [16]byte
				r, err = it.StrongRef()
				refs = [][16]byte{r}
			} else {
				refs, err = it.StrongRefArray()
			}
			if err != nil {
				return err
			}
			for _, ref := range refs {
				target, ok := g.Resolve(ref)
				if !ok {
					continue // unresolved refs are reported by ResolveStrongRef, not here
				}
				if err := walk(target); err != nil {
					return err
				}
			}
		}
		visiting[s.InstanceUID] = false
		visited[s.InstanceUID] = true
		return nil
	}
	return walk(preface)
}

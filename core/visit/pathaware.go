package visit

import (
	"github.com/huangsam/caliper/core/tree"
	"github.com/huangsam/caliper/internal/contract"
	"github.com/huangsam/caliper/schema"
)

// Element is the accumulator of one component on the current root-to-node path.
type Element[T any] struct {
	Component *tree.Component
	Value     *T
}

// Path is the stack of accumulators from the root down to the visited component.
type Path[T any] struct {
	elems []Element[T]
}

// Current returns the accumulator of the visited component.
func (p *Path[T]) Current() *T {
	return p.elems[len(p.elems)-1].Value
}

// IsRoot tells whether the visited component is the crawl root.
func (p *Path[T]) IsRoot() bool {
	return len(p.elems) == 1
}

// Parent returns the accumulator of the parent of the visited component.
func (p *Path[T]) Parent() (*T, error) {
	if p.IsRoot() {
		return nil, contract.NewStateError("Path has no parent")
	}
	return p.elems[len(p.elems)-2].Value, nil
}

// Root returns the accumulator of the crawl root.
func (p *Path[T]) Root() *T {
	return p.elems[0].Value
}

// Len returns the number of elements on the path.
func (p *Path[T]) Len() int {
	return len(p.elems)
}

// Elements returns the path from the root to the visited component.
func (p *Path[T]) Elements() []Element[T] {
	return append([]Element[T](nil), p.elems...)
}

func (p *Path[T]) push(e Element[T]) { p.elems = append(p.elems, e) }

func (p *Path[T]) pop() Element[T] {
	e := p.elems[len(p.elems)-1]
	p.elems = p.elems[:len(p.elems)-1]
	return e
}

// PathFunc is a callback on a component with its path.
type PathFunc[T any] func(c *tree.Component, path *Path[T]) error

// PathFuncs registers one callback per component type. Any runs first, on every type.
type PathFuncs[T any] struct {
	Any         PathFunc[T]
	Project     PathFunc[T]
	Module      PathFunc[T]
	Directory   PathFunc[T]
	File        PathFunc[T]
	View        PathFunc[T]
	SubView     PathFunc[T]
	ProjectView PathFunc[T]

	// Merge is called when a component leaves the path, with its accumulator and its parent's.
	Merge func(parent, child *T)
}

func (f PathFuncs[T]) forType(t schema.ComponentType) PathFunc[T] {
	switch t {
	case schema.ProjectType:
		return f.Project
	case schema.ModuleType:
		return f.Module
	case schema.DirectoryType:
		return f.Directory
	case schema.FileType:
		return f.File
	case schema.ViewType:
		return f.View
	case schema.SubViewType:
		return f.SubView
	case schema.ProjectViewType:
		return f.ProjectView
	default:
		return nil
	}
}

// PathAware is a type-aware visitor that also maintains one accumulator per ancestor.
type PathAware[T any] struct {
	name    string
	order   Order
	limit   DepthLimit
	factory func(c *tree.Component) T
	funcs   PathFuncs[T]
	path    Path[T]
}

// NewPathAware creates a path-aware visitor. factory creates the accumulator of a component
// when the crawl reaches it.
func NewPathAware[T any](name string, order Order, limit DepthLimit, factory func(c *tree.Component) T, funcs PathFuncs[T]) *PathAware[T] {
	return &PathAware[T]{name: name, order: order, limit: limit, factory: factory, funcs: funcs}
}

// Name implements the Visitor interface.
func (v *PathAware[T]) Name() string { return v.name }

// Order implements the Visitor interface.
func (v *PathAware[T]) Order() Order { return v.order }

// Limit implements the Visitor interface.
func (v *PathAware[T]) Limit() DepthLimit { return v.limit }

func (v *PathAware[T]) reset() { v.path.elems = nil }

func (v *PathAware[T]) enter(c *tree.Component) {
	value := v.factory(c)
	v.path.push(Element[T]{Component: c, Value: &value})
}

func (v *PathAware[T]) leave(*tree.Component) {
	child := v.path.pop()
	if v.funcs.Merge != nil && len(v.path.elems) > 0 {
		v.funcs.Merge(v.path.Current(), child.Value)
	}
}

func (v *PathAware[T]) visit(c *tree.Component) error {
	if v.funcs.Any != nil {
		if err := v.funcs.Any(c, &v.path); err != nil {
			return err
		}
	}
	if fn := v.funcs.forType(c.Type()); fn != nil {
		return fn(c, &v.path)
	}
	return nil
}

package visit

import (
	"github.com/huangsam/caliper/core/tree"
	"github.com/huangsam/caliper/schema"
)

// ComponentFunc is a callback on a single component.
type ComponentFunc func(c *tree.Component) error

// TypeFuncs registers one callback per component type. Any runs first, on every type.
type TypeFuncs struct {
	Any         ComponentFunc
	Project     ComponentFunc
	Module      ComponentFunc
	Directory   ComponentFunc
	File        ComponentFunc
	View        ComponentFunc
	SubView     ComponentFunc
	ProjectView ComponentFunc
}

func (f TypeFuncs) forType(t schema.ComponentType) ComponentFunc {
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

// TypeAware dispatches each component to the callback registered for its type.
type TypeAware struct {
	name  string
	order Order
	limit DepthLimit
	funcs TypeFuncs
}

var _ Visitor = &TypeAware{} // Compile-time check

// NewTypeAware creates a type-aware visitor.
func NewTypeAware(name string, order Order, limit DepthLimit, funcs TypeFuncs) *TypeAware {
	return &TypeAware{name: name, order: order, limit: limit, funcs: funcs}
}

// Name implements the Visitor interface.
func (v *TypeAware) Name() string { return v.name }

// Order implements the Visitor interface.
func (v *TypeAware) Order() Order { return v.order }

// Limit implements the Visitor interface.
func (v *TypeAware) Limit() DepthLimit { return v.limit }

func (v *TypeAware) reset() {}

func (v *TypeAware) enter(*tree.Component) {}

func (v *TypeAware) leave(*tree.Component) {}

func (v *TypeAware) visit(c *tree.Component) error {
	if v.funcs.Any != nil {
		if err := v.funcs.Any(c); err != nil {
			return err
		}
	}
	if fn := v.funcs.forType(c.Type()); fn != nil {
		return fn(c)
	}
	return nil
}

// Package visit crawls a component tree with type-aware and path-aware visitors.
//
// A visitor declares its traversal order and the deepest component type it wants
// to see. A Crawler runs several visitors over the same single pass, in
// registration order, and never recurses: the descent is driven by an explicit stack.
package visit

import (
	"github.com/huangsam/caliper/core/tree"
	"github.com/huangsam/caliper/internal/contract"
	"github.com/huangsam/caliper/schema"
)

// Order is the moment a visitor sees a component relative to its children.
type Order int

// All traversal orders supported.
const (
	PreOrder  Order = iota // component before its children
	PostOrder              // component after all its children
)

// String implements fmt.Stringer.
func (o Order) String() string {
	if o == PostOrder {
		return "POST_ORDER"
	}
	return "PRE_ORDER"
}

// DepthLimit is the deepest component type visited, one per hierarchy.
type DepthLimit struct {
	report schema.ComponentType
	views  schema.ComponentType
}

// Predefined depth limits.
var (
	FileLimit      = DepthLimit{report: schema.FileType, views: schema.ProjectViewType}
	DirectoryLimit = DepthLimit{report: schema.DirectoryType, views: schema.SubViewType}
	ModuleLimit    = DepthLimit{report: schema.ModuleType, views: schema.SubViewType}
	ProjectLimit   = DepthLimit{report: schema.ProjectType, views: schema.ViewType}
)

// NewDepthLimit builds a limit from a report type and a views type.
func NewDepthLimit(report, views schema.ComponentType) (DepthLimit, error) {
	if !report.IsReportType() {
		return DepthLimit{}, contract.NewArgumentError("%s is not a report component type", report)
	}
	if !views.IsViewsType() {
		return DepthLimit{}, contract.NewArgumentError("%s is not a views component type", views)
	}
	return DepthLimit{report: report, views: views}, nil
}

// ReportMaxDepth returns the deepest report type visited.
func (l DepthLimit) ReportMaxDepth() schema.ComponentType { return l.report }

// ViewsMaxDepth returns the deepest views type visited.
func (l DepthLimit) ViewsMaxDepth() schema.ComponentType { return l.views }

func (l DepthLimit) limitFor(t schema.ComponentType) schema.ComponentType {
	if t.IsViewsType() {
		return l.views
	}
	return l.report
}

// Includes tells whether components of type t are visited.
func (l DepthLimit) Includes(t schema.ComponentType) bool {
	return !t.IsDeeperThan(l.limitFor(t))
}

// DescendsBelow tells whether the children of a component of type t may be visited.
func (l DepthLimit) DescendsBelow(t schema.ComponentType) bool {
	return t.IsHigherThan(l.limitFor(t))
}

// String implements fmt.Stringer.
func (l DepthLimit) String() string {
	return string(l.report) + "/" + string(l.views)
}

// Visitor is implemented by TypeAware and PathAware. The crawler drives it through
// enter, visit and leave for every component its limit includes.
type Visitor interface {
	Name() string
	Order() Order
	Limit() DepthLimit

	reset()
	enter(c *tree.Component)
	visit(c *tree.Component) error
	leave(c *tree.Component)
}

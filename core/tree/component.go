// Package tree models the component hierarchy of an analysis and builds it from a scanner report.
package tree

import (
	"slices"

	"github.com/huangsam/caliper/internal/contract"
	"github.com/huangsam/caliper/schema"
)

// FileAttributes are the attributes specific to FILE components.
type FileAttributes struct {
	Language string
	IsTest   bool
	Lines    int
}

// ProjectAttributes are the attributes specific to the PROJECT root.
type ProjectAttributes struct {
	Version     string
	BuildString string
}

// ProjectViewAttributes link a PROJECT_VIEW to the project it copies.
type ProjectViewAttributes struct {
	ProjectUUID string
	ProjectKey  string
}

// Spec holds everything needed to create a Component.
type Spec struct {
	Type        schema.ComponentType
	Ref         *int
	UUID        string
	DBKey       string
	Key         string
	Name        string
	ShortName   string
	Description string
	Path        string
	Status      schema.FileStatus
	Children    []*Component
	File        *FileAttributes
	Project     *ProjectAttributes
	ProjectView *ProjectViewAttributes
}

// Component is a node of the tree. It is read-only once created.
type Component struct {
	typ         schema.ComponentType
	ref         int
	hasRef      bool
	uuid        string
	dbKey       string
	key         string
	name        string
	shortName   string
	description string
	path        string
	status      schema.FileStatus
	children    []*Component
	file        FileAttributes
	project     ProjectAttributes
	projectView ProjectViewAttributes
}

// NewComponent validates the spec and returns the component.
func NewComponent(spec Spec) (*Component, error) {
	if _, ok := schema.ValidComponentTypes[spec.Type]; !ok {
		return nil, contract.NewArgumentError("Unsupported component type '%s'", spec.Type)
	}
	if spec.UUID == "" {
		return nil, contract.NewArgumentError("uuid can't be empty")
	}
	if spec.DBKey == "" {
		return nil, contract.NewArgumentError("key can't be empty")
	}
	if spec.File != nil && spec.Type != schema.FileType {
		return nil, contract.NewArgumentError("only a FILE can have file attributes, got %s", spec.Type)
	}
	if spec.ProjectView != nil && spec.Type != schema.ProjectViewType {
		return nil, contract.NewArgumentError("only a PROJECT_VIEW can have project view attributes, got %s", spec.Type)
	}
	for _, child := range spec.Children {
		if child.typ.IsHigherThan(spec.Type) || child.typ.IsReportType() != spec.Type.IsReportType() || spec.Type.IsLeafType() {
			return nil, contract.NewArgumentError("component %s of type %s can't own %s of type %s",
				spec.DBKey, spec.Type, child.dbKey, child.typ)
		}
	}

	c := &Component{
		typ:         spec.Type,
		uuid:        spec.UUID,
		dbKey:       spec.DBKey,
		key:         spec.Key,
		name:        spec.Name,
		shortName:   spec.ShortName,
		description: spec.Description,
		path:        spec.Path,
		status:      spec.Status,
		children:    slices.Clone(spec.Children),
	}
	if spec.Ref != nil {
		c.ref, c.hasRef = *spec.Ref, true
	}
	if c.key == "" {
		c.key = c.dbKey
	}
	if c.name == "" {
		c.name = c.key
	}
	if c.shortName == "" {
		c.shortName = c.name
	}
	if c.status == "" {
		c.status = schema.UnavailableStatus
	}
	if spec.File != nil {
		c.file = *spec.File
	}
	if spec.Project != nil {
		c.project = *spec.Project
	}
	if spec.ProjectView != nil {
		c.projectView = *spec.ProjectView
	}
	return c, nil
}

// Type returns the component type.
func (c *Component) Type() schema.ComponentType { return c.typ }

// Ref returns the report ref, if the component comes from the report.
func (c *Component) Ref() (int, bool) { return c.ref, c.hasRef }

// UUID returns the stable identity.
func (c *Component) UUID() string { return c.uuid }

// DBKey returns the branch-qualified key.
func (c *Component) DBKey() string { return c.dbKey }

// Key returns the public key, identical on every branch.
func (c *Component) Key() string { return c.key }

// Name returns the display name.
func (c *Component) Name() string { return c.name }

// ShortName returns the last segment of the name.
func (c *Component) ShortName() string { return c.shortName }

// Description returns the description, if any.
func (c *Component) Description() string { return c.description }

// Path returns the report path of a DIRECTORY or FILE.
func (c *Component) Path() string { return c.path }

// Status returns the change status of a FILE.
func (c *Component) Status() schema.FileStatus { return c.status }

// Children returns a copy of the owned children.
func (c *Component) Children() []*Component { return slices.Clone(c.children) }

// ChildCount returns the number of owned children.
func (c *Component) ChildCount() int { return len(c.children) }

// FileAttributes returns the attributes of a FILE.
func (c *Component) FileAttributes() FileAttributes { return c.file }

// ProjectAttributes returns the attributes of the PROJECT root.
func (c *Component) ProjectAttributes() ProjectAttributes { return c.project }

// ProjectViewAttributes returns the attributes of a PROJECT_VIEW.
func (c *Component) ProjectViewAttributes() ProjectViewAttributes { return c.projectView }

// String implements fmt.Stringer.
func (c *Component) String() string {
	return string(c.typ) + "(" + c.dbKey + ")"
}

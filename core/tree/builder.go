package tree

import (
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/google/uuid"
	"github.com/huangsam/caliper/internal/contract"
	"github.com/huangsam/caliper/schema"
)

// History is the part of the persistence boundary the builder reads.
type History interface {
	contract.ComponentStore
	contract.SnapshotStore
}

// Result is the outcome of a build.
type Result struct {
	Tree          *Tree
	FirstAnalysis bool
	LastSnapshot  *schema.Snapshot
}

// Builder turns the flat ref-indexed report into a Tree.
type Builder struct {
	reader  contract.ReportReader
	history History
	branch  Branch
	newUUID func() string

	projectKey  string
	modulePaths map[string]string
	existing    map[string]schema.ComponentRecord
	reference   map[string]schema.ComponentRecord
	extended    map[int]*Component
}

// NewBuilder creates a builder reading from the report and resolving identities against history.
func NewBuilder(reader contract.ReportReader, history History, branch Branch) *Builder {
	return &Builder{
		reader:  reader,
		history: history,
		branch:  branch,
		newUUID: uuid.NewString,
	}
}

// WithUUIDSupplier replaces the generator used for components never seen before.
func (b *Builder) WithUUIDSupplier(fn func() string) *Builder {
	b.newUUID = fn
	return b
}

// Build reads the report and returns the tree with the first analysis flag.
func (b *Builder) Build(ctx context.Context) (*Result, error) {
	md := b.reader.Metadata()
	rootData, err := b.reader.Component(md.RootComponentRef)
	if err != nil {
		return nil, contract.NewStateError("Missing root component ref %d in report", md.RootComponentRef).Wrap(err)
	}
	if rootData.Type != schema.ProjectType {
		return nil, contract.NewStateError("Expected root component of type '%s'", schema.ProjectType)
	}

	b.projectKey = md.ProjectKey
	if b.projectKey == "" {
		b.projectKey = rootData.Key
	}
	if b.projectKey == "" {
		return nil, contract.NewStateError("Project key is missing from the report")
	}
	b.modulePaths = md.ModulesPaths
	b.extended = make(map[int]*Component)

	result := &Result{FirstAnalysis: true}
	if b.existing, result.LastSnapshot, err = b.loadExisting(ctx, b.branch); err != nil {
		return nil, err
	}
	result.FirstAnalysis = result.LastSnapshot == nil
	if b.branch.IsShortLived() {
		if b.reference, _, err = b.loadExisting(ctx, b.branch.Reference()); err != nil {
			return nil, err
		}
	}

	version := md.ProjectVersion
	if version == "" && result.LastSnapshot != nil {
		version = result.LastSnapshot.ProjectVersion
	}
	if version == "" {
		version = schema.NotProvidedVersion
	}

	scope := moduleScope{key: b.projectKey, path: "", mapped: true}
	root, err := b.buildComponent(rootData, scope, &ProjectAttributes{Version: version, BuildString: md.BuildString}, false)
	if err != nil {
		return nil, err
	}
	if root == nil {
		return nil, contract.NewStateError("Root component was pruned")
	}

	t, err := NewTree(root, b.extended)
	if err != nil {
		return nil, err
	}
	result.Tree = t
	contract.LogDebug("Built tree of %d components (%d files) for %s", t.Size(), CountFiles(root), root.DBKey())
	return result, nil
}

// loadExisting returns the stored components of the project on a branch, keyed by db key, and its last snapshot.
func (b *Builder) loadExisting(ctx context.Context, branch Branch) (map[string]schema.ComponentRecord, *schema.Snapshot, error) {
	if b.history == nil {
		return nil, nil, nil
	}
	rootKey := branch.GenerateKey(b.projectKey, "")
	rec, found, err := b.history.ComponentByKey(ctx, rootKey)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load component %s: %w", rootKey, err)
	}
	if !found {
		return nil, nil, nil
	}
	components, err := b.history.ComponentsByProject(ctx, rec.UUID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load components of %s: %w", rootKey, err)
	}
	last, ok, err := b.history.LastSnapshot(ctx, rec.UUID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load last analysis of %s: %w", rootKey, err)
	}
	if !ok {
		return components, nil, nil
	}
	return components, &last, nil
}

// moduleScope is the module whose path applies to descendant directories and files.
type moduleScope struct {
	key    string
	path   string
	mapped bool
}

func (s moduleScope) resolve(p string) (base, rel string) {
	p = strings.TrimPrefix(p, "/")
	if !s.mapped {
		return s.key, p
	}
	if s.path == "" {
		return "", p
	}
	if p == "" {
		return "", s.path
	}
	return "", s.path + "/" + p
}

// buildComponent builds one report component and its descendants. A nil component means it was pruned.
func (b *Builder) buildComponent(data schema.ReportComponent, scope moduleScope, project *ProjectAttributes, forReference bool) (*Component, error) {
	if _, ok := schema.ValidComponentTypes[data.Type]; !ok || !data.Type.IsReportType() {
		return nil, contract.NewStateError("Unsupported component type '%s'", data.Type)
	}
	if data.Type == schema.FileType && data.Lines <= 0 {
		return nil, contract.NewStateError("File '%s' has no line", data.Path)
	}

	childScope := scope
	var rel string
	base := b.projectKey
	switch data.Type {
	case schema.ProjectType:
	case schema.ModuleType:
		if data.Key == "" {
			return nil, contract.NewStateError("Module ref %d has no key", data.Ref)
		}
		modPath, mapped := b.modulePaths[data.Key]
		childScope = moduleScope{key: data.Key, path: strings.Trim(modPath, "/"), mapped: mapped}
		base = data.Key
	default:
		var moduleBase string
		moduleBase, rel = scope.resolve(data.Path)
		if moduleBase != "" {
			base = moduleBase
		}
	}

	children := make([]*Component, 0, len(data.ChildRefs))
	for _, ref := range data.ChildRefs {
		childData, err := b.reader.Component(ref)
		if err != nil {
			return nil, contract.NewStateError("No Component for componentRef %d", ref).Wrap(err)
		}
		child, err := b.buildComponent(childData, childScope, nil, forReference)
		if err != nil {
			return nil, err
		}
		if child != nil {
			children = append(children, child)
		}
	}

	if !forReference && b.branch.IsShortLived() && b.prunable(data.Type, children) {
		if err := b.indexExtended(data, scope); err != nil {
			return nil, err
		}
		return nil, nil
	}

	branch := b.branch
	existing := b.existing
	if forReference {
		branch, existing = b.branch.Reference(), b.reference
	}
	dbKey := branch.GenerateKey(base, rel)
	spec := Spec{
		Type:        data.Type,
		Ref:         &data.Ref,
		UUID:        b.resolveUUID(existing, dbKey),
		DBKey:       dbKey,
		Key:         branch.PublicKey(base, rel),
		Name:        data.Name,
		Description: data.Description,
		Path:        data.Path,
		Status:      data.Status,
		Children:    children,
		Project:     project,
	}
	if spec.Name == "" {
		spec.Name = defaultName(data, spec.Key)
	}
	spec.ShortName = shortName(data, spec.Name)
	if data.Type == schema.FileType {
		spec.File = &FileAttributes{Language: data.Language, IsTest: data.IsTest, Lines: data.Lines}
	}

	return NewComponent(spec)
}

// prunable tells whether a MODULE or DIRECTORY holds no changed file at all.
func (b *Builder) prunable(typ schema.ComponentType, children []*Component) bool {
	if typ != schema.ModuleType && typ != schema.DirectoryType {
		return false
	}
	for _, child := range children {
		if hasChangedFile(child) {
			return false
		}
	}
	return true
}

func hasChangedFile(c *Component) bool {
	stack := []*Component{c}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if cur.typ == schema.FileType && cur.status != schema.SameStatus {
			return true
		}
		stack = append(stack, cur.children...)
	}
	return false
}

// indexExtended rebuilds a pruned subtree against the reference branch so its files stay resolvable by ref.
func (b *Builder) indexExtended(data schema.ReportComponent, scope moduleScope) error {
	c, err := b.buildComponent(data, scope, nil, true)
	if err != nil {
		return err
	}
	stack := []*Component{c}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if ref, ok := cur.Ref(); ok {
			b.extended[ref] = cur
		}
		stack = append(stack, cur.children...)
	}
	return nil
}

func (b *Builder) resolveUUID(existing map[string]schema.ComponentRecord, dbKey string) string {
	if rec, ok := existing[dbKey]; ok && rec.UUID != "" {
		return rec.UUID
	}
	return b.newUUID()
}

func defaultName(data schema.ReportComponent, key string) string {
	switch data.Type {
	case schema.DirectoryType, schema.FileType:
		if data.Path != "" {
			return data.Path
		}
	}
	return key
}

func shortName(data schema.ReportComponent, name string) string {
	switch data.Type {
	case schema.DirectoryType, schema.FileType:
		if data.Path != "" && data.Path != "/" {
			return path.Base(data.Path)
		}
	}
	return name
}

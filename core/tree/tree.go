package tree

import (
	"github.com/huangsam/caliper/internal/contract"
	"github.com/huangsam/caliper/schema"
)

// Tree is a built component hierarchy with lookup indexes.
type Tree struct {
	root     *Component
	byRef    map[int]*Component
	byUUID   map[string]*Component
	byKey    map[string]*Component
	parents  map[*Component]*Component
	extended map[int]*Component
}

// NewTree indexes the hierarchy under root. Extended components are resolvable by ref only.
func NewTree(root *Component, extended map[int]*Component) (*Tree, error) {
	if root == nil {
		return nil, contract.NewStateError("root component can't be nil")
	}
	t := &Tree{
		root:     root,
		byRef:    make(map[int]*Component),
		byUUID:   make(map[string]*Component),
		byKey:    make(map[string]*Component),
		parents:  make(map[*Component]*Component),
		extended: make(map[int]*Component, len(extended)),
	}
	for ref, c := range extended {
		t.extended[ref] = c
	}

	stack := []*Component{root}
	for len(stack) > 0 {
		c := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if _, dup := t.byUUID[c.uuid]; dup {
			return nil, contract.NewStateError("uuid '%s' is used by more than one component", c.uuid)
		}
		t.byUUID[c.uuid] = c
		t.byKey[c.dbKey] = c
		if ref, ok := c.Ref(); ok {
			if _, dup := t.byRef[ref]; dup {
				return nil, contract.NewStateError("ref %d is used by more than one component", ref)
			}
			t.byRef[ref] = c
		}
		for i := len(c.children) - 1; i >= 0; i-- {
			t.parents[c.children[i]] = c
			stack = append(stack, c.children[i])
		}
	}
	return t, nil
}

// Root returns the root component.
func (t *Tree) Root() *Component { return t.root }

// ByRef returns the component with the given report ref.
func (t *Tree) ByRef(ref int) (*Component, error) {
	c, ok := t.byRef[ref]
	if !ok {
		return nil, contract.NewStateError("Component with ref '%d' can't be found", ref)
	}
	return c, nil
}

// LookupRef returns the component with the given report ref, if it is in the tree.
func (t *Tree) LookupRef(ref int) (*Component, bool) {
	c, ok := t.byRef[ref]
	return c, ok
}

// ExtendedByRef returns a component that was pruned from the tree but exists on the reference branch.
func (t *Tree) ExtendedByRef(ref int) (*Component, bool) {
	c, ok := t.extended[ref]
	return c, ok
}

// ByUUID returns the component with the given uuid.
func (t *Tree) ByUUID(uuid string) (*Component, bool) {
	c, ok := t.byUUID[uuid]
	return c, ok
}

// ByKey returns the component with the given branch-qualified key.
func (t *Tree) ByKey(key string) (*Component, bool) {
	c, ok := t.byKey[key]
	return c, ok
}

// Parent returns the owner of c. The root has none.
func (t *Tree) Parent(c *Component) (*Component, bool) {
	p, ok := t.parents[c]
	return p, ok
}

// Size returns the number of components in the tree.
func (t *Tree) Size() int { return len(t.byUUID) }

// Components returns every component in pre-order.
func (t *Tree) Components() []*Component {
	out := make([]*Component, 0, len(t.byUUID))
	stack := []*Component{t.root}
	for len(stack) > 0 {
		c := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		out = append(out, c)
		for i := len(c.children) - 1; i >= 0; i-- {
			stack = append(stack, c.children[i])
		}
	}
	return out
}

// Depth returns the number of ancestors of c.
func (t *Tree) Depth(c *Component) int {
	depth := 0
	for p, ok := t.parents[c]; ok; p, ok = t.parents[p] {
		depth++
	}
	return depth
}

// Records returns the persisted form of every component.
func (t *Tree) Records() []schema.ComponentRecord {
	records := make([]schema.ComponentRecord, 0, len(t.byUUID))
	for _, c := range t.Components() {
		records = append(records, schema.ComponentRecord{
			UUID:        c.uuid,
			Key:         c.dbKey,
			PublicKey:   c.key,
			ProjectUUID: t.root.uuid,
			Type:        c.typ,
			Name:        c.name,
			Path:        c.path,
			Language:    c.file.Language,
			Enabled:     true,
		})
	}
	return records
}

// CountFiles returns the number of FILE components under c, c included.
func CountFiles(c *Component) int {
	count := 0
	stack := []*Component{c}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if cur.typ == schema.FileType {
			count++
		}
		stack = append(stack, cur.children...)
	}
	return count
}

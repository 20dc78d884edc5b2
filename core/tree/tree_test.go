package tree

import (
	"fmt"
	"testing"

	"github.com/huangsam/caliper/internal/contract"
	"github.com/huangsam/caliper/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func refPtr(i int) *int { return &i }

func mustComponent(t *testing.T, spec Spec) *Component {
	t.Helper()
	c, err := NewComponent(spec)
	require.NoError(t, err)
	return c
}

func sampleTree(t *testing.T) *Tree {
	t.Helper()
	f1 := mustComponent(t, Spec{Type: schema.FileType, Ref: refPtr(4), UUID: "f1", DBKey: "acme:src/A.java", Path: "src/A.java", File: &FileAttributes{Lines: 10}})
	f2 := mustComponent(t, Spec{Type: schema.FileType, Ref: refPtr(5), UUID: "f2", DBKey: "acme:src/B.java", Path: "src/B.java", File: &FileAttributes{Lines: 20}})
	dir := mustComponent(t, Spec{Type: schema.DirectoryType, Ref: refPtr(3), UUID: "d1", DBKey: "acme:src", Children: []*Component{f1, f2}})
	mod := mustComponent(t, Spec{Type: schema.ModuleType, Ref: refPtr(2), UUID: "m1", DBKey: "acme:core", Children: []*Component{dir}})
	root := mustComponent(t, Spec{Type: schema.ProjectType, Ref: refPtr(1), UUID: "p1", DBKey: "acme", Children: []*Component{mod}})
	tr, err := NewTree(root, nil)
	require.NoError(t, err)
	return tr
}

func TestNewComponentValidation(t *testing.T) {
	_, err := NewComponent(Spec{Type: "BOGUS", UUID: "u", DBKey: "k"})
	assert.True(t, contract.IsArgumentError(err))

	_, err = NewComponent(Spec{Type: schema.FileType, DBKey: "k"})
	assert.Error(t, err, "uuid is mandatory")

	_, err = NewComponent(Spec{Type: schema.DirectoryType, UUID: "u", DBKey: "k", File: &FileAttributes{}})
	assert.Error(t, err, "file attributes on a directory")

	file := mustComponent(t, Spec{Type: schema.FileType, UUID: "f", DBKey: "k:f"})
	_, err = NewComponent(Spec{Type: schema.FileType, UUID: "g", DBKey: "k:g", Children: []*Component{file}})
	assert.Error(t, err, "a file can't own children")

	dir := mustComponent(t, Spec{Type: schema.DirectoryType, UUID: "d", DBKey: "k:d"})
	_, err = NewComponent(Spec{Type: schema.ViewType, UUID: "v", DBKey: "v", Children: []*Component{dir}})
	assert.Error(t, err, "hierarchies can't be mixed")
}

func TestNewComponentDefaults(t *testing.T) {
	c := mustComponent(t, Spec{Type: schema.FileType, UUID: "f", DBKey: "acme:src/A.java:BRANCH:dev"})
	assert.Equal(t, "acme:src/A.java:BRANCH:dev", c.Key())
	assert.Equal(t, c.Key(), c.Name())
	assert.Equal(t, schema.UnavailableStatus, c.Status())
	_, ok := c.Ref()
	assert.False(t, ok)
	assert.Equal(t, "FILE(acme:src/A.java:BRANCH:dev)", c.String())
}

func TestComponentChildrenAreCopied(t *testing.T) {
	tr := sampleTree(t)
	children := tr.Root().Children()
	children[0] = nil
	assert.NotNil(t, tr.Root().Children()[0])
	assert.Equal(t, 1, tr.Root().ChildCount())
}

func TestTreeIndexes(t *testing.T) {
	tr := sampleTree(t)
	assert.Equal(t, 5, tr.Size())

	f, err := tr.ByRef(5)
	require.NoError(t, err)
	assert.Equal(t, "f2", f.UUID())

	_, err = tr.ByRef(99)
	assert.True(t, contract.IsStateError(err))

	d, ok := tr.ByKey("acme:src")
	require.True(t, ok)
	assert.Equal(t, 2, tr.Depth(d))

	parent, ok := tr.Parent(f)
	require.True(t, ok)
	assert.Equal(t, "d1", parent.UUID())
	_, ok = tr.Parent(tr.Root())
	assert.False(t, ok)

	var order []string
	for _, c := range tr.Components() {
		order = append(order, c.UUID())
	}
	assert.Equal(t, []string{"p1", "m1", "d1", "f1", "f2"}, order)

	records := tr.Records()
	require.Len(t, records, 5)
	for _, r := range records {
		assert.Equal(t, "p1", r.ProjectUUID)
	}
}

func TestNewTreeRejectsDuplicates(t *testing.T) {
	a := mustComponent(t, Spec{Type: schema.FileType, Ref: refPtr(2), UUID: "same", DBKey: "acme:a"})
	b := mustComponent(t, Spec{Type: schema.FileType, Ref: refPtr(3), UUID: "same", DBKey: "acme:b"})
	root := mustComponent(t, Spec{Type: schema.ProjectType, UUID: "p", DBKey: "acme", Children: []*Component{a, b}})
	_, err := NewTree(root, nil)
	assert.True(t, contract.IsStateError(err))

	c := mustComponent(t, Spec{Type: schema.FileType, Ref: refPtr(2), UUID: "c", DBKey: "acme:c"})
	root = mustComponent(t, Spec{Type: schema.ProjectType, UUID: "p", DBKey: "acme", Children: []*Component{a, c}})
	_, err = NewTree(root, nil)
	assert.True(t, contract.IsStateError(err))

	_, err = NewTree(nil, nil)
	assert.Error(t, err)
}

func TestCountFiles(t *testing.T) {
	tr := sampleTree(t)
	assert.Equal(t, 2, CountFiles(tr.Root()))

	// Every file is a LINES-bearing leaf
	leaves := 0
	for _, c := range tr.Components() {
		if c.Type().IsLeafType() && c.FileAttributes().Lines > 0 {
			leaves++
		}
	}
	assert.Equal(t, CountFiles(tr.Root()), leaves)

	f, _ := tr.ByRef(4)
	assert.Equal(t, 1, CountFiles(f))
}

func TestCountFilesDeepTree(t *testing.T) {
	// Deep hierarchies are walked without recursion
	leaf := mustComponent(t, Spec{Type: schema.FileType, UUID: "leaf", DBKey: "acme:leaf"})
	cur := leaf
	for i := range 10000 {
		cur = mustComponent(t, Spec{Type: schema.DirectoryType, UUID: fmt.Sprintf("d%d", i), DBKey: fmt.Sprintf("acme:d%d", i), Children: []*Component{cur}})
	}
	root := mustComponent(t, Spec{Type: schema.ProjectType, UUID: "p", DBKey: "acme", Children: []*Component{cur}})
	tr, err := NewTree(root, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, CountFiles(tr.Root()))
	assert.Equal(t, 10002, tr.Size())
}

// Package cpd models code duplications and matches duplicated blocks inside a file,
// inside a project and across projects.
package cpd

import (
	"fmt"

	"github.com/huangsam/caliper/core/tree"
	"github.com/huangsam/caliper/internal/contract"
)

// TextBlock is a range of lines in a file, both ends included.
type TextBlock struct {
	Start int
	End   int
}

// NewTextBlock validates and returns a block.
func NewTextBlock(start, end int) (TextBlock, error) {
	if start < 1 {
		return TextBlock{}, contract.NewArgumentError("First line index must be >= 1, got %d", start)
	}
	if end < start {
		return TextBlock{}, contract.NewArgumentError("Last line index must be >= first line index, got %d < %d", end, start)
	}
	return TextBlock{Start: start, End: end}, nil
}

// Len returns the number of lines of the block.
func (b TextBlock) Len() int { return b.End - b.Start + 1 }

// Contains tells whether line is part of the block.
func (b TextBlock) Contains(line int) bool { return line >= b.Start && line <= b.End }

// String implements fmt.Stringer.
func (b TextBlock) String() string { return fmt.Sprintf("[%d-%d]", b.Start, b.End) }

// Kind is the scope a duplicate belongs to.
type Kind int

// All duplicate kinds.
const (
	Inner             Kind = iota // same file
	InProject                     // another file of the analyzed project or branch
	InExtendedProject             // a file of the reference branch, pruned from a short-lived branch tree
	CrossProject                  // a file of another project, known only by key
)

// String implements fmt.Stringer.
func (k Kind) String() string {
	switch k {
	case Inner:
		return "inner"
	case InProject:
		return "in-project"
	case InExtendedProject:
		return "in-extended-project"
	case CrossProject:
		return "cross-project"
	default:
		return "unknown"
	}
}

// Duplicate is one copy of an original block.
type Duplicate struct {
	Kind  Kind
	Block TextBlock
	File  *tree.Component // InProject and InExtendedProject only
	Key   string          // CrossProject only, the component key in the other project
	Hash  string          // CrossProject only
}

// NewInnerDuplicate returns a duplicate in the same file.
func NewInnerDuplicate(b TextBlock) Duplicate {
	return Duplicate{Kind: Inner, Block: b}
}

// NewInProjectDuplicate returns a duplicate in another file of the tree.
func NewInProjectDuplicate(file *tree.Component, b TextBlock) Duplicate {
	return Duplicate{Kind: InProject, Block: b, File: file}
}

// NewInExtendedProjectDuplicate returns a duplicate in a file of the reference branch.
func NewInExtendedProjectDuplicate(file *tree.Component, b TextBlock) Duplicate {
	return Duplicate{Kind: InExtendedProject, Block: b, File: file}
}

// NewCrossProjectDuplicate returns a duplicate in another project.
func NewCrossProjectDuplicate(key, hash string, b TextBlock) Duplicate {
	return Duplicate{Kind: CrossProject, Block: b, Key: key, Hash: hash}
}

// Duplication is an original block and its copies.
type Duplication struct {
	ID         int // 1-based, per file, in encounter order
	Original   TextBlock
	Duplicates []Duplicate
}

// Repository holds the duplications of the files of an analysis.
type Repository struct {
	byFile map[string][]Duplication
}

// NewRepository creates an empty repository.
func NewRepository() *Repository {
	return &Repository{byFile: make(map[string][]Duplication)}
}

// Add records a duplication of file. Duplications are never merged, even on the same original.
func (r *Repository) Add(file *tree.Component, original TextBlock, duplicates ...Duplicate) (Duplication, error) {
	if len(duplicates) == 0 {
		return Duplication{}, contract.NewArgumentError("duplication of %s at %s has no duplicate", file.DBKey(), original)
	}
	for _, d := range duplicates {
		if d.File != nil && d.File.UUID() == file.UUID() {
			return Duplication{}, contract.NewStateError("Duplication of file %s references itself", file.DBKey())
		}
		if d.Kind == Inner && d.Block == original {
			return Duplication{}, contract.NewArgumentError("inner duplicate %s of %s can't be the original block", d.Block, file.DBKey())
		}
	}
	dup := Duplication{
		ID:         len(r.byFile[file.UUID()]) + 1,
		Original:   original,
		Duplicates: append([]Duplicate(nil), duplicates...),
	}
	r.byFile[file.UUID()] = append(r.byFile[file.UUID()], dup)
	return dup, nil
}

// Of returns the duplications of file, in encounter order.
func (r *Repository) Of(file *tree.Component) []Duplication {
	return r.byFile[file.UUID()]
}

// Size returns the number of duplications across all files.
func (r *Repository) Size() int {
	n := 0
	for _, d := range r.byFile {
		n += len(d)
	}
	return n
}

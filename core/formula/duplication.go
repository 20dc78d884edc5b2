package formula

import (
	"github.com/huangsam/caliper/core/cpd"
	"github.com/huangsam/caliper/core/measure"
	"github.com/huangsam/caliper/schema"
)

// duplicatedLines returns the lines of a file covered by an original block or an inner duplicate.
// Copies living in other files are counted on those files.
func duplicatedLines(dups []cpd.Duplication) map[int]bool {
	lines := make(map[int]bool)
	mark := func(b cpd.TextBlock) {
		for l := b.Start; l <= b.End; l++ {
			lines[l] = true
		}
	}
	for _, d := range dups {
		mark(d.Original)
		for _, dd := range d.Duplicates {
			if dd.Kind == cpd.Inner {
				mark(dd.Block)
			}
		}
	}
	return lines
}

func hasNewLine(b cpd.TextBlock, newLines map[int]bool) bool {
	for l := b.Start; l <= b.End; l++ {
		if newLines[l] {
			return true
		}
	}
	return false
}

type duplicationCounter struct {
	repo                 *cpd.Repository
	lines, blocks, files int64
}

func (c *duplicationCounter) Initialize(ctx *LeafContext) error {
	if ctx.Leaf.Type() != schema.FileType {
		return nil
	}
	dups := c.repo.Of(ctx.Leaf)
	for _, d := range dups {
		c.blocks += int64(1 + len(d.Duplicates))
	}
	c.lines = int64(len(duplicatedLines(dups)))
	if c.lines > 0 {
		c.files = 1
	}
	return nil
}

func (c *duplicationCounter) Aggregate(child Counter) {
	o := child.(*duplicationCounter)
	c.lines += o.lines
	c.blocks += o.blocks
	c.files += o.files
}

// Duplication computes the duplication measures of every component. Counts are zero when
// nothing is duplicated and the density needs the LINES measure of the component.
type Duplication struct {
	repo *cpd.Repository
}

// NewDuplication creates the duplication formula.
func NewDuplication(repo *cpd.Repository) *Duplication { return &Duplication{repo: repo} }

// NewCounter implements the Formula interface.
func (f *Duplication) NewCounter() Counter { return &duplicationCounter{repo: f.repo} }

// OutputMetricKeys implements the Formula interface.
func (f *Duplication) OutputMetricKeys() []string {
	return []string{
		measure.DuplicatedLinesKey,
		measure.DuplicatedBlocksKey,
		measure.DuplicatedFilesKey,
		measure.DuplicatedLinesDensityKey,
	}
}

// Compute implements the Formula interface.
func (f *Duplication) Compute(ctx Context, counter Counter) (measure.Measure, bool) {
	c := counter.(*duplicationCounter)
	switch ctx.Metric.Key {
	case measure.DuplicatedLinesKey:
		return measure.NewInt(int(c.lines)), true
	case measure.DuplicatedBlocksKey:
		return measure.NewInt(int(c.blocks)), true
	case measure.DuplicatedFilesKey:
		return measure.NewInt(int(c.files)), true
	case measure.DuplicatedLinesDensityKey:
		lines, ok := number(ctx.Measure(measure.LinesKey))
		if !ok {
			return measure.Measure{}, false
		}
		v, ok := percent(c.lines, lines)
		if !ok {
			return measure.Measure{}, false
		}
		return measure.NewDouble(v, 1), true
	}
	return measure.Measure{}, false
}

type newSizeCounter struct {
	repo                             *cpd.Repository
	newLines, newDupLines, newBlocks int64
	set                              bool
}

func (c *newSizeCounter) Initialize(ctx *LeafContext) error {
	newLines, ok, err := ctx.NewLines()
	if err != nil || !ok {
		return err
	}
	c.set = true
	c.newLines = int64(len(newLines))

	dups := c.repo.Of(ctx.Leaf)
	for l := range duplicatedLines(dups) {
		if newLines[l] {
			c.newDupLines++
		}
	}
	for _, d := range dups {
		originalIsNew := hasNewLine(d.Original, newLines)
		if originalIsNew {
			c.newBlocks++
		}
		for _, dd := range d.Duplicates {
			switch {
			case dd.Kind == cpd.Inner && hasNewLine(dd.Block, newLines):
				c.newBlocks++
			case dd.Kind != cpd.Inner && originalIsNew:
				c.newBlocks++
			}
		}
	}
	return nil
}

func (c *newSizeCounter) Aggregate(child Counter) {
	o := child.(*newSizeCounter)
	if !o.set {
		return
	}
	c.newLines += o.newLines
	c.newDupLines += o.newDupLines
	c.newBlocks += o.newBlocks
	c.set = true
}

// NewSize computes the new lines and the new duplication measures. Values are carried as
// variations and nothing is emitted on components without new code data.
type NewSize struct {
	repo *cpd.Repository
}

// NewNewSize creates the new size formula.
func NewNewSize(repo *cpd.Repository) *NewSize { return &NewSize{repo: repo} }

// NewCounter implements the Formula interface.
func (f *NewSize) NewCounter() Counter { return &newSizeCounter{repo: f.repo} }

// OutputMetricKeys implements the Formula interface.
func (f *NewSize) OutputMetricKeys() []string {
	return []string{
		measure.NewLinesKey,
		measure.NewDuplicatedLinesKey,
		measure.NewBlocksDuplicatedKey,
		measure.NewDuplicatedLinesDensityKey,
	}
}

// Compute implements the Formula interface.
func (f *NewSize) Compute(ctx Context, counter Counter) (measure.Measure, bool) {
	c := counter.(*newSizeCounter)
	if !c.set {
		return measure.Measure{}, false
	}
	var v float64
	switch ctx.Metric.Key {
	case measure.NewLinesKey:
		v = float64(c.newLines)
	case measure.NewDuplicatedLinesKey:
		v = float64(c.newDupLines)
	case measure.NewBlocksDuplicatedKey:
		v = float64(c.newBlocks)
	case measure.NewDuplicatedLinesDensityKey:
		d, ok := percent(c.newDupLines, c.newLines)
		if !ok {
			return measure.Measure{}, false
		}
		v = measure.Round(d, 1)
	default:
		return measure.Measure{}, false
	}
	return measure.NewNoValue().WithVariation(v), true
}

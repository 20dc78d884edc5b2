package formula

import (
	"github.com/huangsam/caliper/core/tree"
	"github.com/huangsam/caliper/internal/contract"
	"github.com/huangsam/caliper/schema"
)

// NewLines tells which lines of a file belong to new code.
type NewLines interface {
	// Available tells whether new code can be computed at all in this analysis.
	Available() bool

	// Lines returns the new lines of file. false means there is no data for it.
	Lines(file *tree.Component) (map[int]bool, bool, error)
}

// ChangesetNewLines flags a line as new when it was changed after the period's baseline.
type ChangesetNewLines struct {
	reader contract.ReportReader
	period *schema.Period
	cache  map[string]map[int]bool
}

var _ NewLines = &ChangesetNewLines{} // Compile-time check

// NewChangesetNewLines creates the oracle. A nil period means there is no new code data.
func NewChangesetNewLines(reader contract.ReportReader, period *schema.Period) *ChangesetNewLines {
	return &ChangesetNewLines{reader: reader, period: period, cache: make(map[string]map[int]bool)}
}

// Available implements the NewLines interface.
func (n *ChangesetNewLines) Available() bool {
	return n.period != nil
}

// Lines implements the NewLines interface.
func (n *ChangesetNewLines) Lines(file *tree.Component) (map[int]bool, bool, error) {
	if !n.Available() || file.Type() != schema.FileType {
		return nil, false, nil
	}
	if lines, ok := n.cache[file.UUID()]; ok {
		return lines, lines != nil, nil
	}
	ref, ok := file.Ref()
	if !ok {
		return nil, false, nil
	}
	changesets, err := n.reader.Changesets(ref)
	if err != nil {
		return nil, false, err
	}
	if len(changesets) == 0 {
		n.cache[file.UUID()] = nil
		return nil, false, nil
	}
	lines := make(map[int]bool)
	for _, cs := range changesets {
		if cs.Date > n.period.SnapshotDate {
			lines[cs.Line] = true
		}
	}
	n.cache[file.UUID()] = lines
	return lines, true, nil
}

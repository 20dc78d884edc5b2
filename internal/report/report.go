// Package report reads scanner reports written as YAML documents.
package report

import (
	"bytes"
	"fmt"
	"os"

	"github.com/huangsam/caliper/internal/contract"
	"github.com/huangsam/caliper/schema"
	"gopkg.in/yaml.v3"
)

// Report is a scanner report. It can be loaded from a file or built in memory.
type Report struct {
	Meta              schema.ReportMetadata                `yaml:"metadata"`
	Components        []schema.ReportComponent             `yaml:"components"`
	DuplicationsByRef map[int][]schema.ReportDuplication   `yaml:"duplications,omitempty"`
	CpdBlocksByRef    map[int][]schema.ReportCpdBlock      `yaml:"cpd_blocks,omitempty"`
	CoverageByRef     map[int][]schema.ReportCoverageLine  `yaml:"coverage,omitempty"`
	ChangesetsByRef   map[int][]schema.ReportChangesetLine `yaml:"changesets,omitempty"`
	MeasuresByRef     map[int][]schema.ReportMeasure       `yaml:"measures,omitempty"`

	byRef map[int]schema.ReportComponent
}

var _ contract.ReportReader = &Report{} // Compile-time check

// Load reads and validates the report at path.
func Load(path string) (*Report, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read report %s: %w", path, err)
	}
	r, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("invalid report %s: %w", path, err)
	}
	return r, nil
}

// Parse decodes a YAML report.
func Parse(data []byte) (*Report, error) {
	var r Report
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&r); err != nil {
		return nil, err
	}
	if err := r.index(); err != nil {
		return nil, err
	}
	return &r, nil
}

// Marshal encodes the report as YAML.
func (r *Report) Marshal() ([]byte, error) {
	return yaml.Marshal(r)
}

func (r *Report) index() error {
	r.byRef = make(map[int]schema.ReportComponent, len(r.Components))
	for _, c := range r.Components {
		if _, dup := r.byRef[c.Ref]; dup {
			return fmt.Errorf("component ref %d is declared more than once", c.Ref)
		}
		r.byRef[c.Ref] = c
	}
	return nil
}

// Metadata implements the ReportReader interface.
func (r *Report) Metadata() schema.ReportMetadata {
	return r.Meta
}

// Component implements the ReportReader interface.
func (r *Report) Component(ref int) (schema.ReportComponent, error) {
	if r.byRef == nil {
		if err := r.index(); err != nil {
			return schema.ReportComponent{}, err
		}
	}
	c, ok := r.byRef[ref]
	if !ok {
		return schema.ReportComponent{}, fmt.Errorf("component ref %d not found in report", ref)
	}
	return c, nil
}

// Duplications implements the ReportReader interface.
func (r *Report) Duplications(fileRef int) ([]schema.ReportDuplication, error) {
	return r.DuplicationsByRef[fileRef], nil
}

// CpdTextBlocks implements the ReportReader interface.
func (r *Report) CpdTextBlocks(fileRef int) ([]schema.ReportCpdBlock, error) {
	return r.CpdBlocksByRef[fileRef], nil
}

// Coverage implements the ReportReader interface.
func (r *Report) Coverage(fileRef int) ([]schema.ReportCoverageLine, error) {
	return r.CoverageByRef[fileRef], nil
}

// Changesets implements the ReportReader interface.
func (r *Report) Changesets(fileRef int) ([]schema.ReportChangesetLine, error) {
	return r.ChangesetsByRef[fileRef], nil
}

// Measures implements the ReportReader interface.
func (r *Report) Measures(ref int) ([]schema.ReportMeasure, error) {
	return r.MeasuresByRef[ref], nil
}

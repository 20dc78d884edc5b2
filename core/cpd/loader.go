package cpd

import (
	"github.com/huangsam/caliper/core/tree"
	"github.com/huangsam/caliper/internal/contract"
	"github.com/huangsam/caliper/schema"
)

// LoadReportDuplications reads the duplications detected by the scanner for every file of t.
// Files matching one of the exclusions are skipped.
func LoadReportDuplications(reader contract.ReportReader, t *tree.Tree, repo *Repository, exclusions []string) (int, error) {
	count := 0
	for _, file := range t.Components() {
		if file.Type() != schema.FileType {
			continue
		}
		ref, ok := file.Ref()
		if !ok || contract.ShouldIgnore(file.Path(), exclusions) {
			continue
		}
		dups, err := reader.Duplications(ref)
		if err != nil {
			return count, err
		}
		for _, d := range dups {
			if err := loadDuplication(t, repo, file, ref, d); err != nil {
				return count, err
			}
			count++
		}
	}
	return count, nil
}

func loadDuplication(t *tree.Tree, repo *Repository, file *tree.Component, ref int, d schema.ReportDuplication) error {
	original, err := NewTextBlock(d.OriginPosition.StartLine, d.OriginPosition.EndLine)
	if err != nil {
		return err
	}
	duplicates := make([]Duplicate, 0, len(d.Duplicates))
	for _, dup := range d.Duplicates {
		block, err := NewTextBlock(dup.Range.StartLine, dup.Range.EndLine)
		if err != nil {
			return err
		}
		switch {
		case dup.OtherFileRef == 0:
			duplicates = append(duplicates, NewInnerDuplicate(block))
		case dup.OtherFileRef == ref:
			return contract.NewStateError("file and otherFile references can not be the same: duplication of %s references itself", file.DBKey())
		default:
			if other, ok := t.LookupRef(dup.OtherFileRef); ok {
				duplicates = append(duplicates, NewInProjectDuplicate(other, block))
			} else if other, ok := t.ExtendedByRef(dup.OtherFileRef); ok {
				duplicates = append(duplicates, NewInExtendedProjectDuplicate(other, block))
			} else {
				return contract.NewStateError("Component with ref '%d' can't be found", dup.OtherFileRef)
			}
		}
	}
	_, err = repo.Add(file, original, duplicates...)
	return err
}

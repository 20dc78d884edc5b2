package cpd

import (
	"context"
	"fmt"
	"strings"

	"github.com/cespare/xxhash/v2"
	"github.com/huangsam/caliper/core/tree"
	"github.com/huangsam/caliper/internal/contract"
	"github.com/huangsam/caliper/schema"
)

// HashContent returns the hash of a normalized block of code. Whitespace runs are collapsed.
func HashContent(content string) string {
	return fmt.Sprintf("%016x", xxhash.Sum64String(strings.Join(strings.Fields(content), " ")))
}

// Block is a hashed block of a file of the current analysis.
type Block struct {
	File        *tree.Component
	Hash        string
	IndexInFile int
	TextBlock   TextBlock
	StartUnit   int
	EndUnit     int
}

// BlockIndex buckets the blocks of an analysis by hash.
type BlockIndex struct {
	buckets map[uint64][]Block
	hashes  []string
}

// NewBlockIndex creates an empty index.
func NewBlockIndex() *BlockIndex {
	return &BlockIndex{buckets: make(map[uint64][]Block)}
}

// Insert adds a block to the index.
func (idx *BlockIndex) Insert(b Block) {
	k := xxhash.Sum64String(b.Hash)
	if _, seen := idx.buckets[k]; !seen {
		idx.hashes = append(idx.hashes, b.Hash)
	}
	idx.buckets[k] = append(idx.buckets[k], b)
}

// ByHash returns the blocks with the given hash, in insertion order.
func (idx *BlockIndex) ByHash(hash string) []Block {
	var out []Block
	for _, b := range idx.buckets[xxhash.Sum64String(hash)] {
		if b.Hash == hash {
			out = append(out, b)
		}
	}
	return out
}

// Hashes returns the distinct hashes, in insertion order.
func (idx *BlockIndex) Hashes() []string {
	return append([]string(nil), idx.hashes...)
}

// Len returns the number of blocks.
func (idx *BlockIndex) Len() int {
	n := 0
	for _, b := range idx.buckets {
		n += len(b)
	}
	return n
}

// Records returns the persisted form of the indexed blocks.
func (idx *BlockIndex) Records(projectUUID, analysisUUID string) []schema.CpdBlockRecord {
	var out []schema.CpdBlockRecord
	for _, h := range idx.hashes {
		for _, b := range idx.ByHash(h) {
			out = append(out, schema.CpdBlockRecord{
				ProjectUUID:   projectUUID,
				ComponentUUID: b.File.UUID(),
				ComponentKey:  b.File.Key(),
				AnalysisUUID:  analysisUUID,
				Hash:          b.Hash,
				IndexInFile:   b.IndexInFile,
				StartLine:     b.TextBlock.Start,
				EndLine:       b.TextBlock.End,
				StartUnit:     b.StartUnit,
				EndUnit:       b.EndUnit,
			})
		}
	}
	return out
}

// IndexReportBlocks reads the hashed blocks of every file of t. Blocks without a hash are hashed from their content.
func IndexReportBlocks(reader contract.ReportReader, t *tree.Tree, exclusions []string) (*BlockIndex, error) {
	idx := NewBlockIndex()
	for _, file := range t.Components() {
		if file.Type() != schema.FileType {
			continue
		}
		ref, ok := file.Ref()
		if !ok || contract.ShouldIgnore(file.Path(), exclusions) {
			continue
		}
		blocks, err := reader.CpdTextBlocks(ref)
		if err != nil {
			return nil, err
		}
		for i, rb := range blocks {
			tb, err := NewTextBlock(rb.StartLine, rb.EndLine)
			if err != nil {
				return nil, err
			}
			hash := rb.Hash
			if hash == "" {
				hash = HashContent(rb.Content)
			}
			idx.Insert(Block{File: file, Hash: hash, IndexInFile: i, TextBlock: tb, StartUnit: rb.StartUnit, EndUnit: rb.EndUnit})
		}
	}
	return idx, nil
}

// MatchCrossProject looks up the indexed hashes among the blocks of other projects and records
// every match as a cross-project duplicate of the local block.
func MatchCrossProject(ctx context.Context, store contract.CpdIndexStore, idx *BlockIndex, projectUUID string, repo *Repository) (int, error) {
	if idx.Len() == 0 {
		return 0, nil
	}
	matches, err := store.CpdBlocksByHashes(ctx, idx.Hashes(), projectUUID)
	if err != nil {
		return 0, fmt.Errorf("failed to query cross project duplications: %w", err)
	}
	byHash := make(map[string][]schema.CpdBlockRecord)
	for _, m := range matches {
		byHash[m.Hash] = append(byHash[m.Hash], m)
	}

	added := 0
	for _, h := range idx.Hashes() {
		remote := byHash[h]
		if len(remote) == 0 {
			continue
		}
		for _, local := range idx.ByHash(h) {
			duplicates := make([]Duplicate, 0, len(remote))
			for _, rec := range remote {
				tb, err := NewTextBlock(rec.StartLine, rec.EndLine)
				if err != nil {
					return added, err
				}
				duplicates = append(duplicates, NewCrossProjectDuplicate(rec.ComponentKey, rec.Hash, tb))
			}
			if _, err := repo.Add(local.File, local.TextBlock, duplicates...); err != nil {
				return added, err
			}
			added++
		}
	}
	return added, nil
}

package iocache

import (
	"context"
	"errors"
	"fmt"

	"github.com/huangsam/caliper/internal/contract"
	"github.com/huangsam/caliper/internal/parquet"
)

// ExecuteHistoryExport exports snapshots and measures of the history store to Parquet files.
func ExecuteHistoryExport(ctx context.Context, store contract.HistoryStore, outputFile string) error {
	if outputFile == "" {
		return errors.New("--output-file is required for export command")
	}

	status, err := store.GetStatus()
	if err != nil {
		return fmt.Errorf("failed to get history status: %w", err)
	}
	if status.TotalSnapshots == 0 {
		return errors.New("no analysis data found to export")
	}

	fmt.Printf("Exporting data from %s backend...\n", status.Backend)
	fmt.Printf("Total analyses: %d\n", status.TotalSnapshots)
	fmt.Printf("Total measures: %d\n", status.TableSizes[measuresTable])

	snapshots, err := store.AllSnapshots(ctx)
	if err != nil {
		return fmt.Errorf("failed to retrieve snapshots: %w", err)
	}

	measures := make([]parquet.Measure, 0, status.TableSizes[measuresTable])
	for _, s := range snapshots {
		records, err := store.MeasuresByAnalysis(ctx, s.UUID)
		if err != nil {
			return fmt.Errorf("failed to retrieve measures of analysis %s: %w", s.UUID, err)
		}
		measures = append(measures, parquet.ConvertMeasureRecords(records)...)
	}

	snapshotsFile := outputFile + ".snapshots.parquet"
	rows := parquet.ConvertSnapshots(snapshots)
	if err := parquet.WriteSnapshotsParquet(rows, snapshotsFile); err != nil {
		return fmt.Errorf("failed to write snapshots: %w", err)
	}
	fmt.Printf("Exported %d analyses to: %s\n", len(rows), snapshotsFile)

	measuresFile := outputFile + ".measures.parquet"
	if err := parquet.WriteMeasuresParquet(measures, measuresFile); err != nil {
		return fmt.Errorf("failed to write measures: %w", err)
	}
	fmt.Printf("Exported %d measures to: %s\n", len(measures), measuresFile)

	fmt.Println("\nExport complete! The Parquet files can be used with:")
	fmt.Println("  - Apache Spark")
	fmt.Println("  - Pandas (via pyarrow)")
	fmt.Println("  - DuckDB")
	return nil
}

// Package main provides a performance benchmarking tool for the Caliper CLI.
// It measures the time taken to analyze scanner reports of different sizes,
// running each report multiple times without history and with a SQLite history.
// With history, the first successful run is a first analysis (cold) and the others
// resolve a new code period and load base measures (warm).
//
// Prerequisites:
// - caliper binary installed and available in PATH
// - Scanner reports (*.yaml) in the specified directory
//
// Usage: go run benchmark/main.go [report-dir]
//
//	report-dir: Directory containing scanner reports
package main

import (
	"encoding/csv"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// BenchmarkResult holds the result of a benchmark run (no-history average, cold run and average of warm runs).
type BenchmarkResult struct {
	Report        string
	NoHistoryTime string
	ColdTime      string
	WarmTime      string
}

// BenchmarkConfig holds configuration for the benchmark run.
type BenchmarkConfig struct {
	ReportDir     string
	Timeout       time.Duration
	NoHistoryRuns int
	HistoryRuns   int
	Reports       []string
}

func main() {
	if len(os.Args) != 2 {
		fmt.Printf("Usage: %s [report-dir]\n", os.Args[0])
		os.Exit(1)
	}

	config := BenchmarkConfig{
		ReportDir:     os.Args[1],
		Timeout:       5 * time.Minute,
		NoHistoryRuns: 3,
		HistoryRuns:   4,
	}

	reports, err := findReports(config.ReportDir)
	if err != nil {
		fmt.Printf("Prerequisites check failed: %v\n", err)
		os.Exit(1)
	}
	config.Reports = reports

	if _, err := exec.LookPath("caliper"); err != nil {
		fmt.Printf("Prerequisites check failed: caliper binary not found in PATH\n")
		os.Exit(1)
	}

	results := runBenchmarks(config)

	if err := saveResults(results); err != nil {
		fmt.Printf("Failed to save results: %v\n", err)
		os.Exit(1)
	}

	printSummary(results)
}

// findReports lists the YAML reports of dir.
func findReports(dir string) ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(dir, "*.yaml"))
	if err != nil {
		return nil, err
	}
	if len(matches) == 0 {
		return nil, fmt.Errorf("no report found in %s", dir)
	}
	sort.Strings(matches)
	return matches, nil
}

// runBenchmarks executes the benchmark of every report.
func runBenchmarks(config BenchmarkConfig) []BenchmarkResult {
	var results []BenchmarkResult

	fmt.Printf("Starting benchmark: %d reports, %v timeout, no-history: %d runs, history: %d runs\n",
		len(config.Reports), config.Timeout, config.NoHistoryRuns, config.HistoryRuns)

	for _, report := range config.Reports {
		results = append(results, runBenchmarkSuite(config, report))
	}
	return results
}

// runBenchmarkSuite runs both no-history and history benchmarks for a report.
func runBenchmarkSuite(config BenchmarkConfig, report string) BenchmarkResult {
	name := filepath.Base(report)
	fmt.Printf("Benchmarking %s\n", name)

	average := func(times []float64) string {
		if len(times) == 0 {
			return "TIMEOUT"
		}
		var sum float64
		for _, t := range times {
			sum += t
		}
		return fmt.Sprintf("%.3fs", sum/float64(len(times)))
	}

	// Phase 1: No-history runs
	fmt.Printf("  No-history phase (%d runs)\n", config.NoHistoryRuns)
	noHistory := runBenchmark(config, report, []string{"--history-backend", "none"}, config.NoHistoryRuns)

	// Phase 2: History runs on a fresh database
	fmt.Printf("  History phase (%d runs)\n", config.HistoryRuns)
	dbDir, err := os.MkdirTemp("", "caliper-benchmark-*")
	if err != nil {
		fmt.Printf("Warning: failed to create history dir: %v\n", err)
		return BenchmarkResult{Report: name, NoHistoryTime: average(noHistory), ColdTime: "ERROR", WarmTime: "ERROR"}
	}
	defer func() { _ = os.RemoveAll(dbDir) }()
	historyArgs := []string{"--history-backend", "sqlite", "--history-db-connect", filepath.Join(dbDir, "history.db")}
	withHistory := runBenchmark(config, report, historyArgs, config.HistoryRuns)

	coldTime, warmAvg := "TIMEOUT", "TIMEOUT"
	if len(withHistory) > 0 {
		coldTime = fmt.Sprintf("%.3fs", withHistory[0])
		warmAvg = average(withHistory[1:])
	}

	fmt.Printf("  No-history average: %s, Cold time: %s, Warm average: %s\n", average(noHistory), coldTime, warmAvg)

	return BenchmarkResult{
		Report:        name,
		NoHistoryTime: average(noHistory),
		ColdTime:      coldTime,
		WarmTime:      warmAvg,
	}
}

// runBenchmark analyzes a report multiple times and returns the durations of successful runs.
func runBenchmark(config BenchmarkConfig, report string, extraArgs []string, numRuns int) []float64 {
	args := append([]string{"analyze", report, "--color", "no"}, extraArgs...)

	var times []float64
	for run := 1; run <= numRuns; run++ {
		start := time.Now()

		cmd := exec.Command("caliper", args...)

		done := make(chan bool)
		var output []byte
		var cmdErr error

		go func() {
			output, cmdErr = cmd.CombinedOutput()
			done <- true
		}()

		select {
		case <-done:
			if cmdErr == nil && isSuccess(output) {
				times = append(times, time.Since(start).Seconds())
			}
		case <-time.After(config.Timeout):
			_ = cmd.Process.Kill()
			<-done
		}
	}
	return times
}

// isSuccess checks if command output indicates successful completion.
func isSuccess(output []byte) bool {
	outputStr := string(output)
	return strings.Contains(outputStr, "completed in") &&
		strings.Contains(outputStr, "History backend:")
}

// saveResults writes benchmark results to a timestamped CSV file.
func saveResults(results []BenchmarkResult) error {
	timestamp := time.Now().Format("20060102_150405")
	filename := fmt.Sprintf("/tmp/caliper_benchmark_%s.csv", timestamp)

	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil {
			fmt.Printf("Warning: failed to close file %s: %v\n", filename, closeErr)
		}
	}()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	if err := writer.Write([]string{"report", "no_history_avg", "cold_time", "warm_avg"}); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}
	for _, result := range results {
		if err := writer.Write([]string{result.Report, result.NoHistoryTime, result.ColdTime, result.WarmTime}); err != nil {
			return fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	fmt.Printf("Results saved to %s\n", filename)
	return nil
}

// printSummary displays the final benchmark results summary.
func printSummary(results []BenchmarkResult) {
	fmt.Printf("Benchmark complete\n")
	for _, result := range results {
		fmt.Printf("  %-24s: No-history: %s, Cold: %s, Warm: %s\n", result.Report, result.NoHistoryTime, result.ColdTime, result.WarmTime)
	}
}

// Package scanner defines the legacy filesystem intake path as a boundary
// interface only. It mirrors the original per-installation directory scan
// (minimum-reports threshold, backup-directory fallback) but is not
// scheduled by cmd/condenser's default run loop, which uses the queue
// adapter exclusively. No gap-based pruning is done: ReportsGapThreshold is
// defined but not applied.
package scanner

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/tix-net/condenser/internal/report"
)

// Constants carried over from the original directory-scanning intake path.
const (
	ObservationsPerReport            = 60
	MinimumObservationsQty           = 1024
	MinimumReportsQty                = MinimumObservationsQty * 12 / 10 / ObservationsPerReport
	BackupReportsProcessingThreshold = 5
	ReportsGapThreshold              = ObservationsPerReport * 3
	BackupReportsDirName             = "backup-reports"
)

// Source is the boundary interface an operator could wire in place of (or
// ahead of) the queue adapter.
type Source interface {
	Scan(ctx context.Context) ([]report.Report, error)
}

// FileSystemSource implements Source by scanning a base directory of
// per-installation subdirectories containing one JSON report file per
// batch, with a backup-reports fallback when the main directory is too
// thin to process.
type FileSystemSource struct {
	BaseDir string
}

// NewFileSystemSource builds a FileSystemSource rooted at baseDir.
func NewFileSystemSource(baseDir string) *FileSystemSource {
	return &FileSystemSource{BaseDir: baseDir}
}

// Scan walks each installation subdirectory of BaseDir, applying the
// minimum-reports and backup thresholds to decide whether that
// installation's reports are processable, and returns the reports from
// every processable installation. Gaps between reports are not checked.
func (s *FileSystemSource) Scan(ctx context.Context) ([]report.Report, error) {
	entries, err := os.ReadDir(s.BaseDir)
	if err != nil {
		return nil, err
	}

	var reports []report.Report
	for _, entry := range entries {
		if ctx.Err() != nil {
			return reports, ctx.Err()
		}
		if !entry.IsDir() {
			continue
		}

		installationDir := filepath.Join(s.BaseDir, entry.Name())
		files, err := reportFiles(installationDir)
		if err != nil {
			continue
		}

		if len(files) < MinimumReportsQty {
			backup, err := reportFiles(filepath.Join(installationDir, BackupReportsDirName))
			if err != nil || len(backup) == 0 {
				continue
			}
			needed := MinimumReportsQty - len(files)
			if needed > BackupReportsProcessingThreshold {
				continue
			}
			files = append(files, backup...)
			sort.Strings(files)
		}

		for _, path := range files {
			r, err := loadReport(path)
			if err != nil {
				continue
			}
			reports = append(reports, r)
		}
	}
	return reports, nil
}

func reportFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var files []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		files = append(files, filepath.Join(dir, e.Name()))
	}
	sort.Strings(files)
	return files, nil
}

func loadReport(path string) (report.Report, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return report.Report{}, err
	}
	var r report.Report
	if err := json.Unmarshal(data, &r); err != nil {
		return report.Report{}, err
	}
	return r, nil
}

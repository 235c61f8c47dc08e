package scanner_test

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tix-net/condenser/internal/report"
	"github.com/tix-net/condenser/internal/scanner"
	"github.com/tix-net/condenser/internal/wire"
)

func writeReport(t *testing.T, dir, name string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(dir, 0o755))

	r := report.Report{
		From:           "203.0.113.5:1",
		To:             "198.51.100.9:443",
		Type:           wire.Short,
		PublicKey:      "pk",
		Signature:      "sig",
		UserID:         1,
		InstallationID: 1,
		Observations: []wire.Observation{{
			DayTimestamp:   1700000000,
			TypeIdentifier: wire.Short,
			FinalTimestamp: 1000,
		}},
	}
	data, err := json.Marshal(r)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), data, 0o644))
}

func TestScanSkipsInstallationBelowMinimumWithNoBackup(t *testing.T) {
	base := t.TempDir()
	installationDir := filepath.Join(base, "install-1")
	writeReport(t, installationDir, "report-1.json")

	src := scanner.NewFileSystemSource(base)
	reports, err := src.Scan(context.Background())
	require.NoError(t, err)
	require.Empty(t, reports)
}

func TestScanReturnsReportsWhenAboveMinimum(t *testing.T) {
	base := t.TempDir()
	installationDir := filepath.Join(base, "install-1")
	for i := 0; i < scanner.MinimumReportsQty; i++ {
		writeReport(t, installationDir, "report-"+string(rune('a'+i))+".json")
	}

	src := scanner.NewFileSystemSource(base)
	reports, err := src.Scan(context.Background())
	require.NoError(t, err)
	require.Len(t, reports, scanner.MinimumReportsQty)
}

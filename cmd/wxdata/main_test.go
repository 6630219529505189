package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"wxdata/internal/config"
	"wxdata/pkg/contracts"
)

func writeWorkbook(t *testing.T, path string, rows [][]string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)
	for r, row := range rows {
		for c, v := range row {
			cell, err := excelize.CoordinatesToCellName(c+1, r+1)
			require.NoError(t, err)
			require.NoError(t, f.SetCellStr(sheet, cell, v))
		}
	}
	require.NoError(t, f.SaveAs(path))
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestNewRootCmd(t *testing.T) {
	cmd := NewRootCmd()

	assert.Equal(t, "wxdata", cmd.Use)
	assert.NotEmpty(t, cmd.Long)
	assert.Equal(t, contracts.Version, cmd.Version)

	for _, name := range []string{"config", "root", "verbose"} {
		assert.NotNil(t, cmd.PersistentFlags().Lookup(name), name)
	}

	var names []string
	for _, sub := range cmd.Commands() {
		names = append(names, sub.Name())
	}
	assert.Subset(t, names, []string{"run", "process", "publish", "version"})
}

func TestVersionCmd(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "wxdata v"+contracts.Version)
	assert.Contains(t, out, "commit:")

	out, err = execute(t, "version", "--json")
	require.NoError(t, err)
	var info contracts.VersionInfo
	require.NoError(t, json.Unmarshal([]byte(out), &info))
	assert.Equal(t, contracts.Version, info.Version)
}

func TestProcessCmd(t *testing.T) {
	root := t.TempDir()
	publishDir := filepath.Join(root, "published")
	t.Setenv("WXDATA_PATHS_PUBLISH_DIR", publishDir)
	t.Setenv("WXDATA_TELEMETRY_METRICS_TEXTFILE", "metrics/wxdata.prom")

	writeWorkbook(t, filepath.Join(root, config.DefaultTmpDir, config.TrafficDownloadFile), [][]string{
		{"日期", "渠道", "阅读次数"},
		{"2024-01-01", "全部", "30"},
		{"2024-01-01", "推荐", "20"},
	})

	_, err := execute(t, "process", "--account", "acct", "--root", root)
	require.NoError(t, err)

	accountDir := filepath.Join(root, config.DefaultDataDir, "acct")
	assert.FileExists(t, filepath.Join(accountDir, "traffic.csv"))
	assert.FileExists(t, filepath.Join(accountDir, "traffic_summary.csv"))
	assert.FileExists(t, filepath.Join(publishDir, "acct", "traffic.csv"))
	assert.FileExists(t, filepath.Join(root, config.DefaultLogFile))

	prom, err := os.ReadFile(filepath.Join(root, "metrics", "wxdata.prom"))
	require.NoError(t, err)
	assert.Contains(t, string(prom), "wxdata_rows_written_total")
}

func TestProcessCmdReportsBrokenExport(t *testing.T) {
	root := t.TempDir()
	writeWorkbook(t, filepath.Join(root, config.DefaultTmpDir, "坏文章.xlsx"), [][]string{
		{"数据概况"},
		{"数据指标", "数值"},
		{"阅读次数", "1"},
	})

	_, err := execute(t, "process", "--account", "acct", "--root", root)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 export(s) failed")
	assert.Contains(t, err.Error(), "坏文章.xlsx")
}

func TestProcessCmdRequiresAccount(t *testing.T) {
	_, err := execute(t, "process", "--root", t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "account")
}

func TestPublishCmdWithoutPublishDir(t *testing.T) {
	t.Setenv("WXDATA_PATHS_PUBLISH_DIR", "")
	_, err := execute(t, "publish", "--account", "acct", "--root", t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "publish_dir")
}

func TestParseRange(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		begin   string
		end     string
		wantErr string
	}{
		{name: "empty"},
		{name: "both", args: []string{"--begin", "2024-01-01", "--end", "2024-01-31"}, begin: "2024-01-01", end: "2024-01-31"},
		{name: "begin only", args: []string{"--begin", "2024-01-01"}, begin: "2024-01-01"},
		{name: "bad format", args: []string{"--end", "2024/01/31"}, wantErr: "invalid --end"},
		{name: "inverted", args: []string{"--begin", "2024-02-01", "--end", "2024-01-31"}, wantErr: "is after"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := NewRunCmd()
			require.NoError(t, cmd.ParseFlags(tt.args))

			r, err := parseRange(cmd)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.True(t, strings.Contains(err.Error(), tt.wantErr), err.Error())
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.begin, formatDay(r.Begin))
			assert.Equal(t, tt.end, formatDay(r.End))
		})
	}
}

func formatDay(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.DateOnly)
}

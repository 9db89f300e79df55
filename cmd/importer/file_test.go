package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleFile = "0000720170611200057178180001 60,6     ,0     7,5       ,0     ,0     ,0     60,6    ,0     ,0     7,5        ,0     0000000   \n" +
	"0000720170611200057176210001 94,8     ,0     ,0        ,0     ,0     ,0     94,8    ,0     ,0     ,0         ,0     0000000   \n" +
	"0000820170611200059069477021 4,3       ,0     ,8     ,0     ,0     ,0     4,3      ,0     ,0     ,8     ,0     0000000   \n"

// isolateEnv clears the settings the CLI reads and moves into an empty
// directory so no .env file is picked up.
func isolateEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{"STORE_BACKEND", "PG_URL", "MONGODB_URI", "LAYOUT_FILE", "SOURCE_ENCODING", "DRAIN_CONCURRENCY", "LOG_LEVEL", "REDIS_ADDR"} {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
	t.Chdir(t.TempDir())
}

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestFileCmd_DryRun(t *testing.T) {
	isolateEnv(t)
	path := filepath.Join(t.TempDir(), "deudores.txt")
	require.NoError(t, os.WriteFile(path, []byte(sampleFile), 0o644))

	out, err := runCLI(t, "file", path, "--dry-run")
	require.NoError(t, err)

	var result struct {
		Summary struct {
			DebtorsUpserted  int `json:"debtors_upserted"`
			EntitiesUpserted int `json:"entities_upserted"`
		} `json:"summary"`
		Entities []struct {
			ID              string `json:"id"`
			TotalLoanAmount string `json:"suma_prestamos"`
		} `json:"entities"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &result), out)
	assert.Equal(t, 3, result.Summary.DebtorsUpserted)
	assert.Equal(t, 2, result.Summary.EntitiesUpserted)
	require.Len(t, result.Entities, 2)
	assert.Equal(t, "00007", result.Entities[0].ID)
	assert.Equal(t, "155.4", result.Entities[0].TotalLoanAmount)
}

func TestFileCmd_RequiresPath(t *testing.T) {
	_, err := runCLI(t, "file")
	assert.Error(t, err)
}

func TestFileCmd_MissingFile(t *testing.T) {
	isolateEnv(t)
	_, err := runCLI(t, "file", filepath.Join(t.TempDir(), "missing.txt"), "--dry-run")
	assert.Error(t, err)
}

func TestFileCmd_UnknownEncoding(t *testing.T) {
	isolateEnv(t)
	path := filepath.Join(t.TempDir(), "deudores.txt")
	require.NoError(t, os.WriteFile(path, []byte(sampleFile), 0o644))

	_, err := runCLI(t, "file", path, "--dry-run", "--encoding", "ebcdic")
	assert.Error(t, err)
}

type entityTotals struct {
	Entities []struct {
		ID              string `json:"id"`
		TotalLoanAmount string `json:"suma_prestamos"`
	} `json:"entities"`
}

func TestFileCmd_DryRunUsesLayoutFile(t *testing.T) {
	isolateEnv(t)
	dir := t.TempDir()

	path := filepath.Join(dir, "deudores.txt")
	require.NoError(t, os.WriteFile(path, []byte(sampleFile), 0o644))

	layout := `fields:
  - {name: entity_code, start: 0, length: 1}
  - {name: report_date, start: 5, length: 6}
  - {name: id_type, start: 11, length: 2}
  - {name: debtor_id, start: 13, length: 11}
  - {name: activity, start: 24, length: 3}
  - {name: risk_rating, start: 27, length: 2}
  - {name: loan_amount, start: 29, length: 13}
`
	layoutPath := filepath.Join(dir, "layout.yaml")
	require.NoError(t, os.WriteFile(layoutPath, []byte(layout), 0o644))
	t.Setenv("LAYOUT_FILE", layoutPath)
	// store settings are irrelevant to a dry run
	t.Setenv("STORE_BACKEND", "postgres")

	out, err := runCLI(t, "file", path, "--dry-run")
	require.NoError(t, err)

	var result entityTotals
	require.NoError(t, json.Unmarshal([]byte(out), &result), out)
	require.Len(t, result.Entities, 1)
	assert.Equal(t, "0", result.Entities[0].ID)
	assert.Equal(t, "159.7", result.Entities[0].TotalLoanAmount)
}

func TestFileCmd_LayoutFlagOverridesEnv(t *testing.T) {
	isolateEnv(t)
	path := filepath.Join(t.TempDir(), "deudores.txt")
	require.NoError(t, os.WriteFile(path, []byte(sampleFile), 0o644))
	t.Setenv("LAYOUT_FILE", filepath.Join(t.TempDir(), "missing.yaml"))

	_, err := runCLI(t, "file", path, "--dry-run")
	assert.Error(t, err, "LAYOUT_FILE points at a missing file")

	layoutPath := filepath.Join(t.TempDir(), "layout.yaml")
	require.NoError(t, os.WriteFile(layoutPath, []byte(defaultLayoutYAML), 0o644))
	out, err := runCLI(t, "file", path, "--dry-run", "--layout", layoutPath)
	require.NoError(t, err)

	var result entityTotals
	require.NoError(t, json.Unmarshal([]byte(out), &result), out)
	assert.Len(t, result.Entities, 2)
}

const defaultLayoutYAML = `fields:
  - {name: entity_code, start: 0, length: 5}
  - {name: report_date, start: 5, length: 6}
  - {name: id_type, start: 11, length: 2}
  - {name: debtor_id, start: 13, length: 11}
  - {name: activity, start: 24, length: 3}
  - {name: risk_rating, start: 27, length: 2}
  - {name: loan_amount, start: 29, length: 13}
`

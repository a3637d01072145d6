package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// runCLI запускает trafficctl с временным конфигом и возвращает stdout.
func runCLI(t *testing.T, cfgPath string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	a := newApp()
	a.Writer = &out
	a.ErrWriter = &out

	argv := append([]string{"trafficctl", "--config", cfgPath, "--log-dir", filepath.Join(filepath.Dir(cfgPath), "logs")}, args...)
	err := a.Run(argv)
	return out.String(), err
}

func writeConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	raw := fmt.Sprintf(`
geocoding:
  provider: none
storage:
  db_path: %s
  uploads_dir: %s
`, filepath.Join(dir, "traffic.db"), filepath.Join(dir, "uploads"))
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(raw), 0644))
	return path
}

func TestCLI_SearchAndHistory(t *testing.T) {
	cfg := writeConfig(t)

	out, err := runCLI(t, cfg, "search", "ben", "thanh", "market")
	require.NoError(t, err)
	assert.Contains(t, out, `Results for "ben thanh market"`)
	assert.Contains(t, out, "source: local")
	assert.Contains(t, out, "Ben Thanh Market, District 1")
	assert.Contains(t, out, "Chợ Bến Thành")

	out, err = runCLI(t, cfg, "history")
	require.NoError(t, err)
	assert.Contains(t, out, "ben thanh market")

	out, err = runCLI(t, cfg, "history", "--json")
	require.NoError(t, err)
	var items []map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &items))
	require.Len(t, items, 1)
	assert.Equal(t, "ben thanh market", items[0]["query"])
}

func TestCLI_SearchJSON(t *testing.T) {
	cfg := writeConfig(t)

	out, err := runCLI(t, cfg, "search", "--json", "--limit", "2", "district")
	require.NoError(t, err)

	var resp struct {
		Query   string           `json:"query"`
		Count   int              `json:"count"`
		Source  string           `json:"source"`
		Results []map[string]any `json:"results"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "district", resp.Query)
	assert.Equal(t, 2, resp.Count)
	assert.Equal(t, "local", resp.Source)
	assert.Len(t, resp.Results, 2)
}

func TestCLI_Place(t *testing.T) {
	cfg := writeConfig(t)

	out, err := runCLI(t, cfg, "place", "ben thanh market")
	require.NoError(t, err)
	assert.Contains(t, out, "Key:         ben thanh market")
	assert.Contains(t, out, "Coordinates: 10.772465, 106.698087")

	_, err = runCLI(t, cfg, "place", "atlantis")
	assert.Error(t, err)
}

func TestCLI_Suggest(t *testing.T) {
	cfg := writeConfig(t)

	out, err := runCLI(t, cfg, "suggest", "landmark")
	require.NoError(t, err)
	assert.Contains(t, out, "Landmark 81")

	out, err = runCLI(t, cfg, "suggest", "x")
	require.NoError(t, err)
	assert.Contains(t, out, "No suggestions")
}

func TestCLI_Errors(t *testing.T) {
	cfg := writeConfig(t)

	tests := []struct {
		name string
		args []string
	}{
		{name: "search without query", args: []string{"search"}},
		{name: "reverse wrong arity", args: []string{"reverse", "10.77"}},
		{name: "reverse not a number", args: []string{"reverse", "north", "east"}},
		{name: "reverse without geocoder", args: []string{"reverse", "10.77", "106.70"}},
		{name: "ping without geocoder", args: []string{"ping"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := runCLI(t, cfg, tt.args...)
			assert.Error(t, err)
		})
	}
}

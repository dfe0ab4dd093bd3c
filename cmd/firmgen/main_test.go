package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/metalagman/firmgen/internal/config"
	"github.com/metalagman/firmgen/internal/db"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func inTempDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("FIRMGEN_LLM_API_KEY", "test-key")
	return dir
}

func TestInit_CreatesFilesOnce(t *testing.T) {
	inTempDir(t)

	out, err := execute(t, "init")
	require.NoError(t, err)
	assert.Contains(t, out, "firmgen initialized")
	assert.FileExists(t, "design.txt")

	cfg, err := config.Load(config.DefaultPath, true)
	require.NoError(t, err)
	defaults := config.Defaults()
	assert.Equal(t, defaults.Project, cfg.Project)
	assert.Equal(t, defaults.Wiring, cfg.Wiring)
	assert.Equal(t, defaults.LLM.Timeout, cfg.LLM.Timeout)
	assert.Equal(t, "test-key", cfg.LLM.APIKey)

	require.NoError(t, os.WriteFile("design.txt", []byte("mine"), 0o644))
	_, err = execute(t, "init")
	require.NoError(t, err)
	data, err := os.ReadFile("design.txt")
	require.NoError(t, err)
	assert.Equal(t, "mine", string(data))
}

func TestConfig_ShowRedactsAndValidate(t *testing.T) {
	inTempDir(t)
	t.Setenv("FIRMGEN_LLM_API_KEY", "super-secret")

	out, err := execute(t, "config", "show")
	require.NoError(t, err)
	assert.NotContains(t, out, "super-secret")
	var shown map[string]any
	require.NoError(t, yaml.Unmarshal([]byte(out), &shown))
	assert.Equal(t, true, shown["api_key_set"])
	assert.Equal(t, "gemini", shown["provider"])

	out, err = execute(t, "config", "validate")
	require.NoError(t, err)
	assert.Contains(t, out, "configuration is valid")

	t.Setenv("FIRMGEN_LLM_PROVIDER", "exec")
	out, err = execute(t, "config", "validate")
	var verr *config.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, out, "llm.cmd: required for provider exec")
}

func TestConfig_ExplicitMissingFileFails(t *testing.T) {
	inTempDir(t)

	_, err := execute(t, "--config", "nope.yaml", "config", "show")
	require.Error(t, err)
}

func TestPlatforms(t *testing.T) {
	inTempDir(t)

	out, err := execute(t, "platforms", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "esp32-s3-box-3")
	assert.Contains(t, out, "arduino-mega-2560-r3")

	out, err = execute(t, "platforms", "show", "mega", "--json")
	require.NoError(t, err)
	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &entry))

	out, err = execute(t, "platforms", "show", "box-3", "--tool-schema")
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal([]byte(out), &entry))

	_, err = execute(t, "platforms", "show", "uno")
	require.Error(t, err)
}

func TestReconcile_ArduinoProject(t *testing.T) {
	dir := inTempDir(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "demo.ino"), []byte("#include <lvgl.h>\nlv_font_montserrat_28;\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "platformio.ini"), []byte("[env:megaatmega2560]\nboard = megaatmega2560\n"), 0o644))

	out, err := execute(t, "reconcile", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "arduino")
	assert.Contains(t, out, "[28]")

	ini, err := os.ReadFile(filepath.Join(dir, "platformio.ini"))
	require.NoError(t, err)
	assert.Contains(t, string(ini), "-DLV_FONT_MONTSERRAT_28=1")
}

func TestShow_RendersDocs(t *testing.T) {
	dir := inTempDir(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "README.md"), []byte("# Weather station\n\nBuild with PlatformIO.\n"), 0o644))

	out, err := execute(t, "show", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "Weather station")
	assert.Contains(t, out, "Build with PlatformIO.")

	_, err = execute(t, "show", t.TempDir())
	require.Error(t, err)
}

func TestRuns_ListsLedger(t *testing.T) {
	dir := inTempDir(t)
	dbPath := filepath.Join(dir, "ledger.db")
	t.Setenv("FIRMGEN_BATCH_DB_PATH", dbPath)

	conn, err := db.Open(dbPath)
	require.NoError(t, err)
	store := db.NewStore(conn)
	ctx := context.Background()
	require.NoError(t, store.CreateRun(ctx, db.Run{ID: "run-42", Platform: "arduino-mega-2560-r3", Input: "design_list.txt", OutputDir: "iot_project", Total: 1}))
	require.NoError(t, store.StartTask(ctx, "run-42", "lab1_task1", "iot_project/lab1_task1"))
	require.NoError(t, store.FinishTask(ctx, "run-42", "lab1_task1", errors.New("boom")))
	require.NoError(t, store.FinishRun(ctx, "run-42", db.StatusFailed, 1))
	require.NoError(t, conn.Close())

	out, err := execute(t, "runs")
	require.NoError(t, err)
	assert.Contains(t, out, "run-42")
	assert.Contains(t, out, "failed")

	out, err = execute(t, "runs", "tasks", "run-42")
	require.NoError(t, err)
	assert.Contains(t, out, "lab1_task1")
	assert.Contains(t, out, "boom")

	_, err = execute(t, "runs", "tasks", "missing")
	require.ErrorIs(t, err, db.ErrRunNotFound)

	_, err = execute(t, "runs", "prune")
	require.Error(t, err)

	out, err = execute(t, "runs", "prune", "--keep-last", "0", "--keep-days", "36500", "--dry-run")
	require.NoError(t, err)
	assert.Contains(t, out, "would delete 0 runs (kept 1 of 1)")
}

func TestBatch_NoSelectedTasksRecordsRun(t *testing.T) {
	dir := inTempDir(t)
	dbPath := filepath.Join(dir, "ledger.db")
	t.Setenv("FIRMGEN_BATCH_DB_PATH", dbPath)
	require.NoError(t, os.WriteFile("design_list.txt", []byte("[lab1_task1]\nBlink\n"), 0o644))

	out, err := execute(t, "batch", "-t", "lab9_task9", "-o", "results")
	require.NoError(t, err)
	assert.Contains(t, out, "0 tasks, 0 failed")
	assert.FileExists(t, filepath.Join("results", "config.yaml"))

	conn, err := db.Open(dbPath)
	require.NoError(t, err)
	defer func() { _ = conn.Close() }()
	runs, err := db.NewStore(conn).ListRuns(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, db.StatusOK, runs[0].Status)
	assert.Equal(t, "design_list.txt", runs[0].Input)
}

func TestGenerate_InvalidConfigAbortsEarly(t *testing.T) {
	inTempDir(t)
	t.Setenv("FIRMGEN_LLM_PROVIDER", "exec")
	require.NoError(t, os.WriteFile("design.txt", []byte("Blink"), 0o644))

	_, err := execute(t, "generate", "--output", "out")
	var verr *config.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.NoDirExists(t, "out")
}

func TestGenerate_RefusesToCleanWorkingDir(t *testing.T) {
	inTempDir(t)
	t.Setenv("FIRMGEN_LLM_PROVIDER", "exec")
	t.Setenv("FIRMGEN_LLM_CMD", "true")

	_, err := execute(t, "generate", "--clean", "--output", ".")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "refusing to remove")
}

func TestFileTree(t *testing.T) {
	t.Parallel()

	got := fileTree("blink", []string{"main/main.c", "CMakeLists.txt", "main/CMakeLists.txt", "README.md"})
	assert.Equal(t, "blink/\n  CMakeLists.txt\n  README.md\n  main/\n    CMakeLists.txt\n    main.c\n", got)
}

func TestTable(t *testing.T) {
	t.Parallel()

	got := table([]string{"ID", "NAME"}, [][]string{{"a", "first"}, {"bbb", "x"}})
	assert.Equal(t, "ID   NAME\na    first\nbbb  x\n", got)
}

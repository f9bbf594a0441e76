package main_test

import (
	"database/sql"
	"encoding/json"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildBinary compiles the treeshake binary into a temp dir.
func buildBinary(t *testing.T) string {
	t.Helper()
	binName := "treeshake"
	if runtime.GOOS == "windows" {
		binName += ".exe"
	}
	bin := filepath.Join(t.TempDir(), binName)
	cmd := exec.Command("go", "build", "-o", bin, ".")
	cmd.Dir = filepath.Join(projectRoot(t), "cmd", "treeshake")
	cmd.Env = append(os.Environ(), "CGO_ENABLED=1")
	out, err := cmd.CombinedOutput()
	require.NoError(t, err, "build failed: %s", string(out))
	return bin
}

// projectRoot returns the root of the project by walking up from the test
// file's directory to find go.mod.
func projectRoot(t *testing.T) string {
	t.Helper()
	_, filename, _, ok := runtime.Caller(0)
	require.True(t, ok, "runtime.Caller failed")
	dir := filepath.Dir(filename)
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		require.NotEqual(t, parent, dir, "could not find project root")
		dir = parent
	}
}

// createFixture writes a two-module project with a .git dir so the default
// manifest lands inside it.
func createFixture(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(dir, ".git"), 0o755))
	files := map[string]string{
		"src/util.js": `export function double(n) { return n * 2; }
export function triple(n) { return n * 3; }
`,
		"src/main.js": `import { double } from "./util.js";
const answer = double(21);
if (false) { debugOnly(); }
console.log(answer);
`,
	}
	for name, src := range files {
		path := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(src), 0o644))
	}
	return dir
}

// run executes the binary in dir and returns stdout and the exit error.
func run(t *testing.T, bin, dir string, args ...string) ([]byte, error) {
	t.Helper()
	cmd := exec.Command(bin, args...)
	cmd.Dir = dir
	cmd.Env = append(os.Environ(), "HOME="+t.TempDir())
	return cmd.Output()
}

// runJSON executes a command and parses its CLIResult envelope.
func runJSON(t *testing.T, bin, dir string, args ...string) map[string]any {
	t.Helper()
	stdout, err := run(t, bin, dir, args...)
	if err != nil && len(stdout) == 0 {
		t.Fatalf("command %v failed with no output: %v", args, err)
	}
	var result map[string]any
	require.NoError(t, json.Unmarshal(stdout, &result), "invalid JSON output: %s", string(stdout))
	return result
}

const expectedBundle = "function double(n) { return n * 2; }\nconst answer = double(21);\nconsole.log(answer);"

func TestBuild_WritesBundle(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	bin := buildBinary(t)
	dir := createFixture(t)

	result := runJSON(t, bin, dir, "build", "src/main.js", "-o", "dist/bundle.js")
	assert.Equal(t, "build", result["command"])
	assert.Empty(t, result["error"])

	data, err := os.ReadFile(filepath.Join(dir, "dist", "bundle.js"))
	require.NoError(t, err)
	assert.Equal(t, expectedBundle, string(data))

	results := result["results"].(map[string]any)
	assert.EqualValues(t, 3, results["statement_count"])
	assert.Len(t, results["modules"], 2)
}

func TestBuild_Stdout(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	bin := buildBinary(t)
	dir := createFixture(t)

	stdout, err := run(t, bin, dir, "build", "src/main.js", "--stdout")
	require.NoError(t, err)
	assert.Equal(t, expectedBundle+"\n", string(stdout))
}

func TestBuild_RecordRejectsStdout(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	bin := buildBinary(t)
	dir := createFixture(t)

	result := runJSON(t, bin, dir, "build", "src/main.js", "--stdout", "--record")
	assert.Contains(t, result["error"], "--record cannot be combined with --stdout")
	assert.NoFileExists(t, filepath.Join(dir, ".treeshake", "manifest.db"))
}

func TestBuild_NoSimplifyKeepsDeadBranch(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	bin := buildBinary(t)
	dir := createFixture(t)

	result := runJSON(t, bin, dir, "build", "src/main.js", "--stdout", "--no-simplify")
	assert.Contains(t, result["error"], "debugOnly")

	stdout, err := run(t, bin, dir, "build", "src/main.js", "--stdout", "--no-simplify", "--global", "debugOnly")
	require.NoError(t, err)
	assert.Contains(t, string(stdout), "if (false) { debugOnly(); }")
}

func TestBuild_EmbeddedPlugin(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	bin := buildBinary(t)
	dir := createFixture(t)

	stdout, err := run(t, bin, dir, "build", "src/main.js", "--stdout", "--plugin", "iife.risor")
	require.NoError(t, err)
	assert.Equal(t, "(function () {\n"+expectedBundle+"\n})();\n", string(stdout))
}

func TestBuild_ScriptsDirPlugin(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	bin := buildBinary(t)
	dir := createFixture(t)
	scripts := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(scripts, "strict.risor"), []byte(`"'use strict';\n" + code`), 0o644))

	stdout, err := run(t, bin, dir, "build", "src/main.js", "--stdout", "--scripts-dir", scripts, "--plugin", "strict.risor")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(stdout), "'use strict';\n"))
}

func TestBuild_MissingExportFails(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	bin := buildBinary(t)
	dir := createFixture(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "src", "bad.js"),
		[]byte("import { quadruple } from \"./util.js\";\nconsole.log(quadruple(1));\n"), 0o644))

	result := runJSON(t, bin, dir, "build", "src/bad.js", "-o", "out.js")
	assert.Contains(t, result["error"], "does not export quadruple")
	assert.NoFileExists(t, filepath.Join(dir, "out.js"))
}

func TestBuild_InvalidFormat(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	bin := buildBinary(t)
	dir := createFixture(t)

	cmd := exec.Command(bin, "build", "src/main.js", "--stdout", "--format", "yaml")
	cmd.Dir = dir
	out, err := cmd.CombinedOutput()
	require.Error(t, err)
	assert.Contains(t, string(out), "Error: invalid format")
}

func TestInspect_RecordedBuild(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	bin := buildBinary(t)
	dir := createFixture(t)
	dbPath := filepath.Join(dir, ".treeshake", "manifest.db")

	result := runJSON(t, bin, dir, "build", "src/main.js", "-o", "dist/bundle.js", "--record")
	require.Empty(t, result["error"])
	require.FileExists(t, dbPath)

	db, err := sql.Open("sqlite3", dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	var modules int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM modules").Scan(&modules))
	assert.Equal(t, 2, modules)

	builds := runJSON(t, bin, dir, "inspect", "builds")
	assert.EqualValues(t, 1, builds["total_count"])

	mods := runJSON(t, bin, dir, "inspect", "modules")
	modList := mods["results"].([]any)
	require.Len(t, modList, 2)
	assert.Equal(t, filepath.Join(dir, "src", "main.js"), modList[0].(map[string]any)["path"])

	stmts := runJSON(t, bin, dir, "inspect", "statements")
	stmtList := stmts["results"].([]any)
	require.Len(t, stmtList, 3)
	first := stmtList[0].(map[string]any)
	assert.Equal(t, filepath.Join(dir, "src", "util.js"), first["module"])
	assert.EqualValues(t, 0, first["output_order"])

	deps := runJSON(t, bin, dir, "inspect", "dependents", "double")
	assert.EqualValues(t, 1, deps["total_count"])

	del := runJSON(t, bin, dir, "inspect", "delete", "1")
	assert.Empty(t, del["error"])
	after := runJSON(t, bin, dir, "inspect", "builds")
	assert.EqualValues(t, 0, after["total_count"])
}

func TestInspect_NoDatabase(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	bin := buildBinary(t)
	dir := createFixture(t)

	result := runJSON(t, bin, dir, "inspect", "builds")
	assert.Contains(t, result["error"], "database not found")
}

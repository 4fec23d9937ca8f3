package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/conneroisu/quickstart/internal/config"
	qserrors "github.com/conneroisu/quickstart/internal/errors"
	"github.com/conneroisu/quickstart/internal/exec"
	"github.com/conneroisu/quickstart/internal/testutils"
	"github.com/conneroisu/quickstart/internal/types"
)

// testEnv isolates a command run: its own home, config file and templates
// directory.
type testEnv struct {
	home      string
	templates string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("QUICKSTART_CONFIG_FILE", "")
	t.Setenv("QUICKSTART_LOG_LEVEL", "")
	t.Setenv("QUICKSTART_LOG_FORMAT", "")
	templates := filepath.Join(home, "store")
	t.Setenv("QUICKSTART_TEMPLATES_DIR", templates)
	return &testEnv{home: home, templates: templates}
}

func executeCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	viper.Reset()
	t.Cleanup(viper.Reset)

	root := NewRootCmd()
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(args)

	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

// recordingRunner implements exec.CommandRunner. It records every call and
// can simulate a clone by populating the destination directory.
type recordingRunner struct {
	calls [][]string
	clone map[string]string
	fail  map[string]bool
}

func (r *recordingRunner) Run(ctx context.Context, name string, args []string, opts exec.RunOpts) (exec.CmdResult, error) {
	r.calls = append(r.calls, append([]string{name}, args...))

	if name == "git" && r.clone != nil {
		dest := args[len(args)-1]
		for rel, content := range r.clone {
			path := filepath.Join(dest, filepath.FromSlash(rel))
			if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
				return exec.CmdResult{}, err
			}
			if err := os.WriteFile(path, []byte(content), 0644); err != nil {
				return exec.CmdResult{}, err
			}
		}
	}
	if name == "sh" && r.fail[args[len(args)-1]] {
		return exec.CmdResult{ExitCode: 1, Stderr: "boom"}, nil
	}
	return exec.CmdResult{}, nil
}

func stubRunner(t *testing.T, r *recordingRunner) {
	t.Helper()
	previous := newRunner
	newRunner = func() exec.CommandRunner { return r }
	t.Cleanup(func() { newRunner = previous })
}

// storeTemplate runs "init" on a small skeleton and returns its directory.
func storeTemplate(t *testing.T, extra ...string) string {
	t.Helper()
	src := filepath.Join(t.TempDir(), "skeleton")
	testutils.WriteTree(t, src, map[string]string{
		"README.md":                 "# {{projectName}} by {{author}} ({{license}})\n",
		"{{projectName}}/main.go":   "package {{projectName}}\n",
		"node_modules/dep/index.js": "ignored",
	})

	args := append([]string{"init", src, "--name", "api", "--variable", "author!", "--variable", "license=MIT"}, extra...)
	_, err := executeCommand(t, args...)
	require.NoError(t, err)
	return src
}

func TestInitAndList(t *testing.T) {
	env := newTestEnv(t)
	storeTemplate(t, "--script", "hello=echo hi")

	assert.FileExists(t, filepath.Join(env.templates, "api", "README.md"))
	assert.NoDirExists(t, filepath.Join(env.templates, "api", "node_modules"))
	assert.FileExists(t, filepath.Join(env.templates, "api", types.MetadataFileName))

	out, err := executeCommand(t, "list", "--format", "json")
	require.NoError(t, err)

	var summaries []templateSummary
	require.NoError(t, json.Unmarshal([]byte(out), &summaries))
	require.Len(t, summaries, 1)
	assert.Equal(t, "api", summaries[0].Name)
	assert.Equal(t, "Template for api projects", summaries[0].Description)
	assert.Equal(t, 2, summaries[0].Variables)
	assert.Equal(t, 1, summaries[0].Scripts)

	out, err = executeCommand(t, "ls")
	require.NoError(t, err)
	assert.Contains(t, out, "Found 1 template:")
	assert.Contains(t, out, "api")
}

func TestListEmpty(t *testing.T) {
	newTestEnv(t)

	out, err := executeCommand(t, "list")
	require.NoError(t, err)
	assert.Contains(t, out, "No templates found")

	out, err = executeCommand(t, "list", "-f", "json")
	require.NoError(t, err)
	assert.JSONEq(t, "[]", out)
}

func TestListRejectsUnknownFormat(t *testing.T) {
	newTestEnv(t)

	_, err := executeCommand(t, "list", "--format", "jsn")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `did you mean "json"?`)
}

func TestInitExistingTemplate(t *testing.T) {
	newTestEnv(t)
	src := storeTemplate(t)

	_, err := executeCommand(t, "init", src, "--name", "api")
	require.Error(t, err)
	assert.True(t, qserrors.HasCode(err, qserrors.ErrCodeTemplateExists))

	_, err = executeCommand(t, "init", src, "--name", "api", "--force", "--description", "replaced")
	require.NoError(t, err)

	out, err := executeCommand(t, "info", "api", "-f", "yaml")
	require.NoError(t, err)
	var detail map[string]interface{}
	require.NoError(t, yaml.Unmarshal([]byte(out), &detail))
	assert.Equal(t, "replaced", detail["description"])
}

func TestInfo(t *testing.T) {
	newTestEnv(t)
	storeTemplate(t, "--optional-script", "lint=make lint")

	out, err := executeCommand(t, "info", "api", "--format", "json")
	require.NoError(t, err)

	var detail templateDetail
	require.NoError(t, json.Unmarshal([]byte(out), &detail))
	assert.Equal(t, "api", detail.Name)
	assert.Equal(t, 2, detail.FileCount)
	require.Len(t, detail.Variables, 2)
	assert.True(t, detail.Variables[0].Required)
	assert.Equal(t, "MIT", detail.Variables[1].DefaultValue())
	require.Len(t, detail.PostCreationScripts, 1)
	assert.False(t, detail.PostCreationScripts[0].RunByDefault)

	out, err = executeCommand(t, "info", "api")
	require.NoError(t, err)
	assert.Contains(t, out, "Template: api")
	assert.Contains(t, out, "Files:")
	assert.Contains(t, out, "Run By Default:")

	_, err = executeCommand(t, "info", "missing")
	assert.True(t, qserrors.HasCode(err, qserrors.ErrCodeTemplateNotFound))
}

func TestCreate(t *testing.T) {
	newTestEnv(t)
	storeTemplate(t)
	target := filepath.Join(t.TempDir(), "billing")

	out, err := executeCommand(t, "create", "api", "-d", target, "--var", "author=Ada")
	require.NoError(t, err)
	assert.Contains(t, out, "Project created successfully")

	readme, err := os.ReadFile(filepath.Join(target, "README.md"))
	require.NoError(t, err)
	assert.Equal(t, "# billing by Ada (MIT)\n", string(readme))

	source, err := os.ReadFile(filepath.Join(target, "billing", "main.go"))
	require.NoError(t, err)
	assert.Equal(t, "package billing\n", string(source))
	assert.NoFileExists(t, filepath.Join(target, types.MetadataFileName))
}

func TestCreateVarsJSON(t *testing.T) {
	newTestEnv(t)
	storeTemplate(t)
	target := filepath.Join(t.TempDir(), "svc")

	_, err := executeCommand(t, "create", "api", "-d", target,
		"--vars", `{"author": "Grace", "license": "Apache-2.0"}`, "--var", "license=BSD")
	require.NoError(t, err)

	readme, err := os.ReadFile(filepath.Join(target, "README.md"))
	require.NoError(t, err)
	assert.Equal(t, "# svc by Grace (BSD)\n", string(readme))
}

func TestCreateRequiresVariables(t *testing.T) {
	newTestEnv(t)
	storeTemplate(t)
	target := filepath.Join(t.TempDir(), "billing")

	_, err := executeCommand(t, "create", "api", "-d", target)
	require.Error(t, err)
	assert.True(t, qserrors.HasCode(err, qserrors.ErrCodeVariableRequired))
	assert.NoDirExists(t, target)
}

func TestCreateUsesConfiguredAuthor(t *testing.T) {
	env := newTestEnv(t)
	storeTemplate(t)

	_, err := executeCommand(t, "config", "set", "default_author", "Linus")
	require.NoError(t, err)
	assert.FileExists(t, config.DefaultFile(env.home))

	target := filepath.Join(t.TempDir(), "kernel")
	_, err = executeCommand(t, "create", "api", "-d", target)
	require.NoError(t, err)

	readme, err := os.ReadFile(filepath.Join(target, "README.md"))
	require.NoError(t, err)
	assert.Equal(t, "# kernel by Linus (MIT)\n", string(readme))
}

func TestCreateNonEmptyTarget(t *testing.T) {
	newTestEnv(t)
	storeTemplate(t)
	target := t.TempDir()
	testutils.WriteTree(t, target, map[string]string{"keep.txt": "mine"})

	_, err := executeCommand(t, "create", "api", "-d", target, "--var", "author=Ada")
	require.Error(t, err)
	assert.True(t, qserrors.HasCode(err, qserrors.ErrCodeTargetNotEmpty))

	_, err = executeCommand(t, "create", "api", "-d", target, "--var", "author=Ada", "--force")
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(target, "README.md"))

	kept, err := os.ReadFile(filepath.Join(target, "keep.txt"))
	require.NoError(t, err)
	assert.Equal(t, "mine", string(kept))
}

func TestCreateRunsScripts(t *testing.T) {
	newTestEnv(t)
	storeTemplate(t,
		"--script", "install=make install",
		"--script", "broken=exit 1",
		"--optional-script", "lint=make lint",
	)
	runner := &recordingRunner{fail: map[string]bool{"exit 1": true}}
	stubRunner(t, runner)

	target := filepath.Join(t.TempDir(), "p")
	out, err := executeCommand(t, "create", "api", "-d", target, "--var", "author=Ada")
	require.NoError(t, err, "a failing script does not fail the command")
	assert.Contains(t, out, "Completed with 1 warning\n")

	require.Len(t, runner.calls, 2)
	assert.Equal(t, []string{"sh", "-c", "make install"}, runner.calls[0])
	assert.Equal(t, []string{"sh", "-c", "exit 1"}, runner.calls[1])

	runner.calls = nil
	target = filepath.Join(t.TempDir(), "q")
	_, err = executeCommand(t, "create", "api", "-d", target, "--var", "author=Ada", "--scripts", "lint")
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"sh", "-c", "make lint"}}, runner.calls)

	runner.calls = nil
	target = filepath.Join(t.TempDir(), "r")
	_, err = executeCommand(t, "create", "api", "-d", target, "--var", "author=Ada", "--skip-scripts")
	require.NoError(t, err)
	assert.Empty(t, runner.calls)

	_, err = executeCommand(t, "create", "api", "-d", filepath.Join(t.TempDir(), "s"), "--var", "author=Ada", "--scripts", "deploy")
	assert.True(t, qserrors.HasCode(err, qserrors.ErrCodeUnknownScript))
}

func TestCreateSelectsTemplate(t *testing.T) {
	newTestEnv(t)

	_, err := executeCommand(t, "create")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no templates found")

	storeTemplate(t)
	_, err = executeCommand(t, "create")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "available: api")

	target := filepath.Join(t.TempDir(), "first")
	_, err = executeCommand(t, "create", "-y", "-d", target, "--var", "author=Ada")
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(target, "README.md"))
}

func TestExportImport(t *testing.T) {
	env := newTestEnv(t)
	storeTemplate(t)
	archivePath := filepath.Join(t.TempDir(), "api.qst")

	out, err := executeCommand(t, "export", "api", "-o", archivePath)
	require.NoError(t, err)
	assert.Contains(t, out, archivePath)
	assert.FileExists(t, archivePath)

	_, err = executeCommand(t, "import", archivePath)
	require.Error(t, err)
	assert.True(t, qserrors.HasCode(err, qserrors.ErrCodeTemplateExists))

	_, err = executeCommand(t, "rm", "api", "--yes")
	require.NoError(t, err)
	assert.NoDirExists(t, filepath.Join(env.templates, "api"))

	out, err = executeCommand(t, "import", archivePath)
	require.NoError(t, err)
	assert.Contains(t, out, `Template "api" imported`)

	readme, err := os.ReadFile(filepath.Join(env.templates, "api", "README.md"))
	require.NoError(t, err)
	assert.Equal(t, "# {{projectName}} by {{author}} ({{license}})\n", string(readme))

	_, err = executeCommand(t, "import", archivePath, "-f")
	require.NoError(t, err)
}

func TestExportDefaultPath(t *testing.T) {
	newTestEnv(t)
	storeTemplate(t)
	dir := t.TempDir()
	prevWD, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(prevWD) })

	_, err = executeCommand(t, "export", "api")
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(dir, "api.qst"))
}

func TestImportRejectsExtension(t *testing.T) {
	newTestEnv(t)
	path := filepath.Join(t.TempDir(), "api.zip")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0644))

	_, err := executeCommand(t, "import", path)
	assert.True(t, qserrors.HasCode(err, qserrors.ErrCodeArchiveExtension))
}

func TestRemoveRequiresConfirmation(t *testing.T) {
	env := newTestEnv(t)
	storeTemplate(t)

	_, err := executeCommand(t, "remove", "api")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--yes")
	assert.DirExists(t, filepath.Join(env.templates, "api"))
}

func TestUpdate(t *testing.T) {
	env := newTestEnv(t)
	storeTemplate(t)

	_, err := executeCommand(t, "update", "api")
	require.Error(t, err)

	_, err = executeCommand(t, "update", "api", "--name", "service", "-d", "Service skeleton")
	require.NoError(t, err)
	assert.NoDirExists(t, filepath.Join(env.templates, "api"))

	out, err := executeCommand(t, "info", "service", "-f", "json")
	require.NoError(t, err)
	var detail templateDetail
	require.NoError(t, json.Unmarshal([]byte(out), &detail))
	assert.Equal(t, "service", detail.Name)
	assert.Equal(t, "Service skeleton", detail.Description)
}

func TestGitHub(t *testing.T) {
	env := newTestEnv(t)
	runner := &recordingRunner{clone: map[string]string{
		"README.md":            "root",
		".git/HEAD":            "ref: refs/heads/main",
		"templates/api/app.go": "package {{projectName}}",
	}}
	stubRunner(t, runner)

	_, err := executeCommand(t, "github", "acme/mono", "-s", "templates/api", "-b", "develop")
	require.NoError(t, err)

	require.Len(t, runner.calls, 1)
	call := runner.calls[0]
	assert.Equal(t, []string{"git", "clone", "--depth", "1", "--branch", "develop", "https://github.com/acme/mono.git"}, call[:7])

	assert.FileExists(t, filepath.Join(env.templates, "mono", "app.go"))
	assert.NoFileExists(t, filepath.Join(env.templates, "mono", "README.md"))

	entries, err := os.ReadDir(filepath.Join(env.templates, ".temp"))
	require.NoError(t, err)
	assert.Empty(t, entries, "clone directory is removed")

	out, err := executeCommand(t, "info", "mono", "-f", "json")
	require.NoError(t, err)
	assert.Contains(t, out, "Template from acme/mono")
}

func TestGitHubWholeRepo(t *testing.T) {
	env := newTestEnv(t)
	stubRunner(t, &recordingRunner{clone: map[string]string{
		"README.md": "root",
		".git/HEAD": "ref: refs/heads/main",
	}})

	_, err := executeCommand(t, "github", "acme/skeleton", "--name", "skel", "--ignore", "dist")
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(env.templates, "skel", "README.md"))
	assert.NoDirExists(t, filepath.Join(env.templates, "skel", ".git"))
}

func TestGitHubInvalidInput(t *testing.T) {
	newTestEnv(t)
	stubRunner(t, &recordingRunner{})

	_, err := executeCommand(t, "github", "not-a-repo")
	assert.True(t, qserrors.HasCode(err, qserrors.ErrCodeInvalidRepo))

	_, err = executeCommand(t, "github", "acme/repo", "-s", "../outside")
	assert.True(t, qserrors.HasCode(err, qserrors.ErrCodeUnsafePath))

	_, err = executeCommand(t, "github", "acme/repo", "-s", "missing")
	assert.True(t, qserrors.HasCode(err, qserrors.ErrCodeFileNotFound))
}

func TestConfigCommands(t *testing.T) {
	env := newTestEnv(t)
	path := filepath.Join(t.TempDir(), "quickstart.yaml")

	_, err := executeCommand(t, "--config", path, "config", "set", "log.format=json")
	require.NoError(t, err)
	_, err = executeCommand(t, "--config", path, "config", "set", "default_license", "BSD")
	require.NoError(t, err)

	out, err := executeCommand(t, "--config", path, "config", "get", "default_license")
	require.NoError(t, err)
	assert.Equal(t, "BSD\n", out)

	out, err = executeCommand(t, "--config", path, "config", "list", "-f", "json")
	require.NoError(t, err)
	var settings map[string]string
	require.NoError(t, json.Unmarshal([]byte(out), &settings))
	assert.Equal(t, "json", settings["log.format"])
	assert.Equal(t, env.templates, settings["templates_dir"])

	out, err = executeCommand(t, "--config", path, "config", "path")
	require.NoError(t, err)
	assert.Equal(t, path, strings.TrimSpace(out))

	_, err = executeCommand(t, "--config", path, "config", "set", "log.level", "loud")
	assert.True(t, qserrors.HasCode(err, qserrors.ErrCodeConfigInvalid))
	_, err = executeCommand(t, "--config", path, "config", "set", "nokey")
	assert.Error(t, err)

	_, err = executeCommand(t, "--config", path, "config", "reset")
	require.NoError(t, err)
	assert.NoFileExists(t, path)

	out, err = executeCommand(t, "--config", path, "config", "get", "default_license")
	require.NoError(t, err)
	assert.Equal(t, "MIT\n", out)
}

func TestTemplatesDirFlag(t *testing.T) {
	newTestEnv(t)
	dir := filepath.Join(t.TempDir(), "elsewhere")

	out, err := executeCommand(t, "--templates-dir", dir, "config", "get", "templates_dir")
	require.NoError(t, err)
	assert.Equal(t, dir, strings.TrimSpace(out))
}

func TestVersion(t *testing.T) {
	newTestEnv(t)

	out, err := executeCommand(t, "version", "--format", "json")
	require.NoError(t, err)

	var info map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(out), &info))
	assert.EqualValues(t, 1, info["archive_format"])
	assert.NotEmpty(t, info["go_version"])

	out, err = executeCommand(t, "version", "--detailed")
	require.NoError(t, err)
	assert.Contains(t, out, "Archive format: 1")

	_, err = executeCommand(t, "version", "--format", "xml")
	assert.Error(t, err)
}

func TestParseVariable(t *testing.T) {
	testCases := []struct {
		input    string
		expected types.Variable
		wantErr  bool
	}{
		{input: "author", expected: types.Variable{Name: "author"}},
		{input: "author!", expected: types.Variable{Name: "author", Required: true}},
		{input: "license=MIT", expected: types.Variable{Name: "license", Default: types.StringPtr("MIT")}},
		{input: "port!=8080", expected: types.Variable{Name: "port", Required: true, Default: types.StringPtr("8080")}},
		{input: "empty=", expected: types.Variable{Name: "empty", Default: types.StringPtr("")}},
		{input: "=x", wantErr: true},
		{input: "{{x}}", wantErr: true},
	}

	for _, tc := range testCases {
		t.Run(tc.input, func(t *testing.T) {
			v, err := parseVariable(tc.input)
			if tc.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.expected, v)
		})
	}
}

func TestValuesFlag(t *testing.T) {
	values := valuesFlag{}
	require.NoError(t, values.Set("b=2"))
	require.NoError(t, values.Set("a=x=y"))
	assert.Equal(t, "a=x=y,b=2", values.String())
	assert.Error(t, values.Set("novalue"))
	assert.Error(t, values.Set("=v"))
}

func TestParseVarsJSON(t *testing.T) {
	values, err := ParseVarsJSON(`{"name": "api", "port": 8080, "debug": true}`)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"name": "api", "port": "8080", "debug": "true"}, values)

	values, err = ParseVarsJSON("")
	require.NoError(t, err)
	assert.Empty(t, values)

	_, err = ParseVarsJSON("{not json")
	assert.Error(t, err)
}

func TestValidateFormatWithSuggestion(t *testing.T) {
	assert.NoError(t, ValidateFormatWithSuggestion("JSON", outputFormats))

	err := ValidateFormatWithSuggestion("yml", outputFormats)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `did you mean "yaml"?`)

	err = ValidateFormatWithSuggestion("spreadsheet", outputFormats)
	require.Error(t, err)
	assert.NotContains(t, err.Error(), "did you mean")
}

func TestConfigValues(t *testing.T) {
	cfg := &config.Config{DefaultAuthor: "Ada", DefaultLicense: "MIT"}
	meta := types.Metadata{Variables: []types.Variable{
		{Name: "author", Required: true},
		{Name: "license", Default: types.StringPtr("GPL")},
	}}

	assert.Equal(t, map[string]string{"author": "Ada"}, configValues(cfg, meta))
	assert.Empty(t, configValues(&config.Config{}, meta))
}

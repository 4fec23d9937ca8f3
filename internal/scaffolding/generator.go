// Package scaffolding materializes a stored template into a new project:
// it resolves variable values, copies the template tree, renames tokenized
// paths and substitutes tokens in file contents.
package scaffolding

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/conneroisu/quickstart/internal/errors"
	"github.com/conneroisu/quickstart/internal/fsutil"
	"github.com/conneroisu/quickstart/internal/logging"
	"github.com/conneroisu/quickstart/internal/pathrewrite"
	"github.com/conneroisu/quickstart/internal/substitute"
	"github.com/conneroisu/quickstart/internal/types"
)

// Names of the values every project receives without declaring them.
const (
	BuiltinProjectName = "projectName"
	BuiltinCurrentYear = "currentYear"
)

// ProjectGenerator creates projects from templates
type ProjectGenerator struct {
	logger logging.Logger
	now    func() time.Time
}

// GenerateOptions holds options for project generation
type GenerateOptions struct {
	// TemplateDir is the stored template to copy
	TemplateDir string
	// Metadata of the template; its variables drive value resolution
	Metadata types.Metadata
	// Target is the project directory to create
	Target string
	// Values supplied by the user, overriding builtins
	Values map[string]string
	// Merge allows writing into an existing, non-empty target
	Merge bool
}

// Result describes a generated project.
type Result struct {
	Target       string
	Values       map[string]string
	Rewrite      *pathrewrite.RewriteResult
	Substitution *substitute.DirectoryResult
}

// NewProjectGenerator creates a new project generator
func NewProjectGenerator(logger logging.Logger) *ProjectGenerator {
	return &ProjectGenerator{
		logger: logging.OrNop(logger).WithComponent("scaffolding"),
		now:    time.Now,
	}
}

// DefaultTargetDir is the project directory used when none is given.
func DefaultTargetDir(templateName string) string {
	return fmt.Sprintf("my-%s-project", templateName)
}

// BuiltinValues returns the values provided for every project.
func BuiltinValues(target string, now time.Time) map[string]string {
	return map[string]string{
		BuiltinProjectName: filepath.Base(filepath.Clean(target)),
		BuiltinCurrentYear: strconv.Itoa(now.Year()),
	}
}

// ResolveVariables merges builtins, supplied values and declared defaults.
// Supplied values win over builtins. A declared variable without a value
// takes its default; a required one without a default is an error listing
// every such variable.
func ResolveVariables(vars []types.Variable, supplied, builtins map[string]string) (map[string]string, error) {
	values := make(map[string]string, len(builtins)+len(supplied)+len(vars))
	for k, v := range builtins {
		values[k] = v
	}
	for k, v := range supplied {
		values[k] = v
	}

	var missing []string
	for _, v := range vars {
		if _, ok := values[v.Name]; ok {
			continue
		}
		switch {
		case v.HasDefault():
			values[v.Name] = v.DefaultValue()
		case v.Required:
			missing = append(missing, v.Name)
		}
	}

	if len(missing) > 0 {
		sort.Strings(missing)
		return nil, errors.ErrVariablesRequired(missing)
	}
	return values, nil
}

// Generate creates the project described by opts. Values are resolved before
// anything is written. The template is assembled in a staging directory next
// to the target and moved or merged into place once every step succeeded.
func (g *ProjectGenerator) Generate(ctx context.Context, opts GenerateOptions) (*Result, error) {
	perf := logging.StartOperation(g.logger, "generate")
	result, err := g.generate(ctx, opts)
	if err != nil {
		perf.EndWithError(ctx, err)
		return nil, err
	}
	perf.End(ctx)
	return result, nil
}

func (g *ProjectGenerator) generate(ctx context.Context, opts GenerateOptions) (*Result, error) {
	target, err := filepath.Abs(opts.Target)
	if err != nil {
		return nil, errors.WrapIO(err, errors.ErrCodeInternalError, "failed to resolve target directory")
	}

	values, err := ResolveVariables(opts.Metadata.Variables, opts.Values, BuiltinValues(target, g.now()))
	if err != nil {
		return nil, err
	}

	empty, err := fsutil.IsDirEmpty(target)
	if err != nil {
		return nil, errors.WrapIO(err, errors.ErrCodeInternalError, "failed to inspect target directory").WithPath(target)
	}
	if !empty && !opts.Merge {
		return nil, errors.NewConflictError(errors.ErrCodeTargetNotEmpty, "target directory exists and is not empty").WithPath(target)
	}

	if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
		return nil, errors.WrapIO(err, errors.ErrCodeInternalError, "failed to create parent directory").WithPath(target)
	}
	staging, err := os.MkdirTemp(filepath.Dir(target), ".quickstart-staging-*")
	if err != nil {
		return nil, errors.WrapIO(err, errors.ErrCodeInternalError, "failed to create staging directory").WithPath(target)
	}
	defer os.RemoveAll(staging)
	if err := os.Chmod(staging, 0755); err != nil {
		return nil, errors.WrapIO(err, errors.ErrCodeInternalError, "failed to prepare staging directory").WithPath(staging)
	}

	skipSidecar := func(rel string, _ fs.DirEntry) bool {
		return rel == types.MetadataFileName
	}
	if err := fsutil.CopyTree(opts.TemplateDir, staging, skipSidecar); err != nil {
		return nil, errors.WrapIO(err, errors.ErrCodeInternalError, "failed to copy template").WithPath(opts.TemplateDir)
	}

	rewrite, err := pathrewrite.Rewrite(ctx, staging, values, g.logger)
	if err != nil {
		return nil, err
	}

	substitution, err := substitute.Directory(ctx, staging, values, g.logger)
	if err != nil {
		return nil, err
	}

	if err := place(staging, target); err != nil {
		return nil, errors.WrapIO(err, errors.ErrCodeInternalError, "failed to write project").WithPath(target)
	}

	g.logger.Info(ctx, "Project created",
		"target", target,
		"renamed", len(rewrite.Renamed),
		"skipped", len(rewrite.Skipped),
		"substituted", len(substitution.Changed),
	)

	return &Result{
		Target:       target,
		Values:       values,
		Rewrite:      rewrite,
		Substitution: substitution,
	}, nil
}

// place moves the staged project to target, merging when target exists.
func place(staging, target string) error {
	if _, err := os.Stat(target); os.IsNotExist(err) {
		return os.Rename(staging, target)
	}
	return fsutil.CopyTree(staging, target, nil)
}

// SelectScripts returns the names of the post-creation scripts to run.
// Explicitly requested names must exist; without a request the scripts
// marked RunByDefault are chosen.
func SelectScripts(list []types.Script, requested []string) ([]string, error) {
	if requested == nil {
		names := []string{}
		for _, s := range list {
			if s.RunByDefault {
				names = append(names, s.Name)
			}
		}
		return names, nil
	}

	known := make(map[string]bool, len(list))
	for _, s := range list {
		known[s.Name] = true
	}
	for _, name := range requested {
		if !known[name] {
			return nil, errors.NewValidationError(errors.ErrCodeUnknownScript,
				fmt.Sprintf("unknown script %q", name)).WithContext("script", name)
		}
	}
	return requested, nil
}

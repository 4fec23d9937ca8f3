// Package pathrewrite renames files and directories whose names contain
// {{name}} placeholder tokens.
//
// Paths are processed deepest first and only the last segment of each path
// is renamed, inside its parent as it exists at that moment. A child is
// therefore always moved before its parent, and a renamed parent carries its
// already-renamed children with it. No path is dropped and no partially
// renamed directory is left behind.
package pathrewrite

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/conneroisu/quickstart/internal/errors"
	"github.com/conneroisu/quickstart/internal/logging"
	"github.com/conneroisu/quickstart/internal/substitute"
	"github.com/conneroisu/quickstart/internal/validation"
)

// Rename moves one path, relative to the root and slash separated.
type Rename struct {
	From string
	To   string
}

// Skipped is a path that was not renamed, with the reason.
type Skipped struct {
	Path   string
	Target string
	Err    error
}

// RewritePlan is the ordered list of renames computed for a tree.
type RewritePlan struct {
	Root    string
	Renames []Rename
	Skipped []Skipped
}

// RewriteResult reports what Rewrite did.
type RewriteResult struct {
	Renamed []Rename
	Skipped []Skipped
}

// Plan enumerates every path below root once and computes the renames needed
// to substitute values into path names. Renames that would land on an
// existing path, or on the destination of another rename, are skipped:
// existing paths always win, otherwise the lexically smallest source wins.
func Plan(root string, values map[string]string) (*RewritePlan, error) {
	var paths []string
	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}
		if rel != "." {
			paths = append(paths, filepath.ToSlash(rel))
		}
		return nil
	})
	if err != nil {
		return nil, errors.WrapIO(err, errors.ErrCodeInternalError, "failed to enumerate paths").WithPath(root)
	}

	sort.Slice(paths, func(i, j int) bool {
		di, dj := depth(paths[i]), depth(paths[j])
		if di != dj {
			return di > dj
		}
		return paths[i] < paths[j]
	})

	existing := make(map[string]bool, len(paths))
	for _, p := range paths {
		existing[p] = true
	}

	replacer := substitute.NewReplacer(values)
	plan := &RewritePlan{Root: root}

	var candidates []Rename
	for _, p := range paths {
		base := path.Base(p)
		newBase := replacer.String(base)
		if newBase == base {
			continue
		}

		target := newBase
		if dir := path.Dir(p); dir != "." {
			target = dir + "/" + newBase
		}

		if strings.Trim(newBase, "/") == "" {
			err := errors.NewValidationError(errors.ErrCodeRenameFailed, "substituted name is empty")
			plan.Skipped = append(plan.Skipped, skipped(p, target, err))
			continue
		}
		if err := validation.ValidateEntryPath(target); err != nil {
			qe := errors.Wrap(err, errors.ErrorTypeInput, errors.ErrCodeUnsafePath, "substituted path escapes root")
			plan.Skipped = append(plan.Skipped, skipped(p, target, qe))
			continue
		}

		candidates = append(candidates, Rename{From: p, To: path.Clean(target)})
	}

	winners := make(map[string]string)
	for _, c := range candidates {
		if w, ok := winners[c.To]; !ok || c.From < w {
			winners[c.To] = c.From
		}
	}

	for _, c := range candidates {
		switch {
		case existing[c.To]:
			err := errors.NewConflictError(errors.ErrCodeRenameCollision, "target already exists")
			plan.Skipped = append(plan.Skipped, skipped(c.From, c.To, err))
		case winners[c.To] != c.From:
			err := errors.NewConflictError(errors.ErrCodeRenameCollision,
				fmt.Sprintf("target also produced by %s", winners[c.To]))
			plan.Skipped = append(plan.Skipped, skipped(c.From, c.To, err))
		default:
			plan.Renames = append(plan.Renames, c)
		}
	}

	return plan, nil
}

// Rewrite plans and performs the renames below root. A rename that fails is
// logged and recorded in the result, and processing continues. Only a failure
// to enumerate the tree is returned as an error.
func Rewrite(ctx context.Context, root string, values map[string]string, logger logging.Logger) (*RewriteResult, error) {
	logger = logging.OrNop(logger).WithComponent("pathrewrite")

	plan, err := Plan(root, values)
	if err != nil {
		return nil, err
	}

	result := &RewriteResult{Skipped: plan.Skipped}
	for _, s := range plan.Skipped {
		logger.Warn(ctx, s.Err, "Skipped rename", "path", s.Path, "target", s.Target)
	}

	for _, r := range plan.Renames {
		from := filepath.Join(root, filepath.FromSlash(r.From))
		to := filepath.Join(root, filepath.FromSlash(r.To))

		if err := move(from, to); err != nil {
			skip := Skipped{Path: r.From, Target: r.To, Err: err}
			result.Skipped = append(result.Skipped, skip)
			logger.Warn(ctx, err, "Rename failed", "from", r.From, "to", r.To)
			continue
		}

		result.Renamed = append(result.Renamed, r)
		logger.Info(ctx, "Renamed", "from", r.From, "to", r.To)
	}

	return result, nil
}

func move(from, to string) error {
	// Intermediate directories created by an earlier rename may occupy the target
	if _, err := os.Lstat(to); err == nil {
		qe := errors.NewConflictError(errors.ErrCodeRenameCollision, "target already exists").WithPath(to)
		qe.Recoverable = true
		return qe
	}

	if err := os.MkdirAll(filepath.Dir(to), 0755); err != nil {
		return errors.WrapRecoverable(err, errors.ErrorTypeIO, errors.ErrCodeRenameFailed, "failed to create parent directory").WithPath(to)
	}

	if err := os.Rename(from, to); err != nil {
		return errors.WrapRecoverable(err, errors.ErrorTypeIO, errors.ErrCodeRenameFailed, "rename failed").WithPath(from)
	}
	return nil
}

// skipped records a rename that will not happen. Such errors are warnings.
func skipped(from, to string, err *errors.QuickstartError) Skipped {
	err.Recoverable = true
	return Skipped{
		Path:   from,
		Target: to,
		Err:    err.WithPath(from).WithContext("target", to),
	}
}

func depth(p string) int {
	return strings.Count(p, "/")
}

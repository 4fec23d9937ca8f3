// Package store manages the templates root: one directory per template,
// each carrying a metadata sidecar. The root is always supplied by the
// caller; nothing in this package consults the user's home directory.
package store

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/conneroisu/quickstart/internal/archive"
	"github.com/conneroisu/quickstart/internal/errors"
	"github.com/conneroisu/quickstart/internal/fsutil"
	"github.com/conneroisu/quickstart/internal/logging"
	"github.com/conneroisu/quickstart/internal/types"
	"github.com/conneroisu/quickstart/internal/validation"
)

// Template is a stored template.
type Template struct {
	Name     string
	Path     string
	Metadata types.Metadata
}

// Store operates on a templates root directory.
type Store struct {
	root   string
	logger logging.Logger
	now    func() time.Time
}

// New returns a Store rooted at root. The directory is created lazily by
// operations that write.
func New(root string, logger logging.Logger) *Store {
	return &Store{
		root:   root,
		logger: logging.OrNop(logger).WithComponent("store"),
		now:    time.Now,
	}
}

// Root returns the templates root.
func (s *Store) Root() string {
	return s.root
}

// Path returns the directory of the named template.
func (s *Store) Path(name string) string {
	return filepath.Join(s.root, name)
}

// Exists reports whether a template directory with the name exists.
func (s *Store) Exists(name string) bool {
	info, err := os.Stat(s.Path(name))
	return err == nil && info.IsDir()
}

// EnsureRoot creates the templates root if needed.
func (s *Store) EnsureRoot() error {
	if err := os.MkdirAll(s.root, 0755); err != nil {
		return errors.WrapIO(err, errors.ErrCodeInternalError, "failed to create templates directory").WithPath(s.root)
	}
	return nil
}

// List returns every stored template sorted by name. Directories starting
// with a dot are internal and not listed.
func (s *Store) List() ([]Template, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		if os.IsNotExist(err) {
			return []Template{}, nil
		}
		return nil, errors.WrapIO(err, errors.ErrCodeInternalError, "failed to read templates directory").WithPath(s.root)
	}

	templates := make([]Template, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		dir := filepath.Join(s.root, e.Name())
		meta, err := s.loadMetadata(dir)
		if err != nil {
			return nil, err
		}
		templates = append(templates, Template{Name: e.Name(), Path: dir, Metadata: meta})
	}

	sort.Slice(templates, func(i, j int) bool {
		return templates[i].Name < templates[j].Name
	})
	return templates, nil
}

// Get returns the named template.
func (s *Store) Get(name string) (*Template, error) {
	if err := validation.ValidateTemplateName(name); err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeValidation, errors.ErrCodeInvalidTemplateName, "invalid template name")
	}
	if !s.Exists(name) {
		return nil, errors.ErrTemplateNotFound(name)
	}

	dir := s.Path(name)
	meta, err := s.loadMetadata(dir)
	if err != nil {
		return nil, err
	}
	return &Template{Name: name, Path: dir, Metadata: meta}, nil
}

// LoadMetadata reads the sidecar of dir. A directory without one gets
// default metadata named after the directory.
func LoadMetadata(dir string) (types.Metadata, error) {
	return loadMetadata(dir, time.Now())
}

func (s *Store) loadMetadata(dir string) (types.Metadata, error) {
	return loadMetadata(dir, s.now())
}

func loadMetadata(dir string, now time.Time) (types.Metadata, error) {
	sidecar := filepath.Join(dir, types.MetadataFileName)

	var meta types.Metadata
	if err := fsutil.ReadJSON(sidecar, &meta); err != nil {
		if os.IsNotExist(err) {
			return types.DefaultMetadata(filepath.Base(dir), now), nil
		}
		return types.Metadata{}, errors.NewConfigError(errors.ErrCodeConfigInvalid, "unreadable template metadata").
			WithPath(sidecar).
			WithContext("cause", err.Error())
	}

	if meta.Name == "" {
		meta.Name = filepath.Base(dir)
	}
	meta.Normalize()
	return meta, nil
}

// SaveMetadata writes meta as the sidecar of dir.
func SaveMetadata(dir string, meta types.Metadata) error {
	meta.Normalize()
	sidecar := filepath.Join(dir, types.MetadataFileName)
	if err := fsutil.WriteJSON(sidecar, meta); err != nil {
		return errors.WrapIO(err, errors.ErrCodeInternalError, "failed to write template metadata").WithPath(sidecar)
	}
	return nil
}

// CreateOptions configures CreateFromDir.
type CreateOptions struct {
	Metadata types.Metadata
	// Ignore patterns; nil means DefaultIgnorePatterns
	Ignore []string
	// Force replaces an existing template of the same name
	Force bool
}

// CreateFromDir stores a copy of src as a new template.
func (s *Store) CreateFromDir(ctx context.Context, src string, opts CreateOptions) (*Template, error) {
	name := opts.Metadata.Name
	if err := validation.ValidateTemplateName(name); err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeValidation, errors.ErrCodeInvalidTemplateName, "invalid template name")
	}

	info, err := os.Stat(src)
	if err != nil || !info.IsDir() {
		return nil, errors.NewIOError(errors.ErrCodeFileNotFound, "source directory not found", err).WithPath(src)
	}

	patterns := opts.Ignore
	if patterns == nil {
		patterns = DefaultIgnorePatterns
	}
	matcher, err := NewIgnoreMatcher(patterns)
	if err != nil {
		return nil, errors.NewValidationError(errors.ErrCodeConfigInvalid, err.Error())
	}

	if err := s.checkTarget(name, opts.Force); err != nil {
		return nil, err
	}

	staging, err := s.TempDir("create-*")
	if err != nil {
		return nil, err
	}
	defer os.RemoveAll(staging)

	tree := filepath.Join(staging, name)
	skip := s.skipWithin(src, matcher.SkipFunc())
	if err := fsutil.CopyTree(src, tree, skip); err != nil {
		return nil, errors.WrapIO(err, errors.ErrCodeInternalError, "failed to copy template files").WithPath(src)
	}

	meta := opts.Metadata
	meta.CreatedAt = s.now()
	if err := SaveMetadata(tree, meta); err != nil {
		return nil, err
	}
	if err := s.swapIn(ctx, name, tree, staging); err != nil {
		return nil, err
	}

	s.logger.Info(ctx, "Template created", "template", name, "source", src)
	return s.Get(name)
}

// skipWithin wraps skip so the templates root is never copied into itself
// when it lies below src.
func (s *Store) skipWithin(src string, skip fsutil.SkipFunc) fsutil.SkipFunc {
	absRoot, err1 := filepath.Abs(s.root)
	absSrc, err2 := filepath.Abs(src)
	if err1 != nil || err2 != nil {
		return skip
	}
	inner, err := filepath.Rel(absSrc, absRoot)
	if err != nil || strings.HasPrefix(inner, "..") || inner == "." {
		return skip
	}
	inner = filepath.ToSlash(inner)

	return func(rel string, d fs.DirEntry) bool {
		if rel == inner {
			return true
		}
		return skip(rel, d)
	}
}

// checkTarget makes sure name can be written. An existing template is only
// accepted when force is set; it is replaced later by swapIn.
func (s *Store) checkTarget(name string, force bool) error {
	if err := s.EnsureRoot(); err != nil {
		return err
	}
	if s.Exists(name) && !force {
		return errors.ErrTemplateExists(name).WithPath(s.Path(name))
	}
	return nil
}

// Import stores the template held in a .qst archive. The name is checked
// for collisions before anything is written.
func (s *Store) Import(ctx context.Context, archivePath string, force bool) (*Template, error) {
	if !strings.EqualFold(filepath.Ext(archivePath), archive.Extension) {
		return nil, errors.NewValidationError(errors.ErrCodeArchiveExtension,
			fmt.Sprintf("archive must have the %s extension", archive.Extension)).WithPath(archivePath)
	}

	decoded, err := archive.UnpackFile(archivePath)
	if err != nil {
		return nil, err
	}

	name := decoded.Metadata.Name
	if err := validation.ValidateTemplateName(name); err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeInput, errors.ErrCodeInvalidTemplateName, "archive carries an invalid template name")
	}

	if err := s.checkTarget(name, force); err != nil {
		return nil, err
	}

	// Extract next to the store and swap into place only once every file is
	// written, so a failed import never costs the template it would replace.
	staging, err := s.TempDir("import-*")
	if err != nil {
		return nil, err
	}
	defer os.RemoveAll(staging)

	extracted := filepath.Join(staging, name)
	if err := decoded.Extract(extracted); err != nil {
		return nil, err
	}
	if err := s.swapIn(ctx, name, extracted, staging); err != nil {
		return nil, err
	}

	s.logger.Info(ctx, "Template imported", "template", name, "archive", archivePath, "files", decoded.FileCount())
	return s.Get(name)
}

// swapIn moves dir into place as the template name. An existing template is
// moved into scratch first and restored if the final rename fails.
func (s *Store) swapIn(ctx context.Context, name, dir, scratch string) error {
	dest := s.Path(name)
	previous := ""
	if s.Exists(name) {
		previous = filepath.Join(scratch, "previous")
		if err := os.Rename(dest, previous); err != nil {
			return errors.WrapIO(err, errors.ErrCodeInternalError, "failed to move existing template aside").WithPath(dest)
		}
		s.logger.Warn(ctx, nil, "Replacing existing template", "template", name)
	}

	if err := os.Rename(dir, dest); err != nil {
		if previous != "" {
			if restoreErr := os.Rename(previous, dest); restoreErr != nil {
				s.logger.Error(ctx, restoreErr, "Failed to restore template", "template", name)
			}
		}
		return errors.WrapIO(err, errors.ErrCodeInternalError, "failed to install template").WithPath(dest)
	}
	return nil
}

// DefaultExportPath is the archive written by Export when no output is given.
func DefaultExportPath(dir, name string) string {
	return filepath.Join(dir, name+archive.Extension)
}

// Export packs the named template into out, returning the path written.
// An empty out writes <name>.qst in the current directory.
func (s *Store) Export(ctx context.Context, name, out string) (string, error) {
	tmpl, err := s.Get(name)
	if err != nil {
		return "", err
	}

	if out == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return "", errors.WrapIO(err, errors.ErrCodeInternalError, "failed to resolve working directory")
		}
		out = DefaultExportPath(cwd, name)
	}

	perf := logging.StartOperation(s.logger, "export")
	if err := archive.PackFile(tmpl.Path, tmpl.Metadata, out); err != nil {
		perf.EndWithError(ctx, err)
		return "", err
	}
	perf.End(ctx)

	s.logger.Info(ctx, "Template exported", "template", name, "output", out)
	return out, nil
}

// UpdateOptions lists the metadata fields to change. Nil fields are kept.
type UpdateOptions struct {
	Name        *string
	Description *string
}

// Update rewrites the metadata of a template and renames its directory when
// the name changes.
func (s *Store) Update(ctx context.Context, name string, opts UpdateOptions) (*Template, error) {
	tmpl, err := s.Get(name)
	if err != nil {
		return nil, err
	}

	meta := tmpl.Metadata
	newName := name
	if opts.Name != nil && *opts.Name != "" {
		newName = *opts.Name
		if err := validation.ValidateTemplateName(newName); err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeValidation, errors.ErrCodeInvalidTemplateName, "invalid template name")
		}
		if newName != name && s.Exists(newName) {
			return nil, errors.ErrTemplateExists(newName).WithPath(s.Path(newName))
		}
	}
	if opts.Description != nil {
		meta.Description = *opts.Description
	}
	meta.Name = newName

	dir := tmpl.Path
	if newName != name {
		dir = s.Path(newName)
		if err := os.Rename(tmpl.Path, dir); err != nil {
			return nil, errors.WrapIO(err, errors.ErrCodeInternalError, "failed to rename template").WithPath(tmpl.Path)
		}
	}

	if err := SaveMetadata(dir, meta); err != nil {
		if dir != tmpl.Path {
			if restoreErr := os.Rename(dir, tmpl.Path); restoreErr != nil {
				s.logger.Error(ctx, restoreErr, "Failed to restore template directory", "template", name)
			}
		}
		return nil, err
	}
	if dir != tmpl.Path {
		s.logger.Info(ctx, "Template renamed", "from", name, "to", newName)
	}

	return s.Get(newName)
}

// Remove deletes the named template.
func (s *Store) Remove(ctx context.Context, name string) error {
	tmpl, err := s.Get(name)
	if err != nil {
		return err
	}
	if err := os.RemoveAll(tmpl.Path); err != nil {
		return errors.WrapIO(err, errors.ErrCodeInternalError, "failed to remove template").WithPath(tmpl.Path)
	}
	s.logger.Info(ctx, "Template removed", "template", name)
	return nil
}

// FileCount returns the number of files in a template, not counting
// directories or the metadata sidecar.
func (s *Store) FileCount(name string) (int, error) {
	tmpl, err := s.Get(name)
	if err != nil {
		return 0, err
	}

	count := 0
	err = filepath.WalkDir(tmpl.Path, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if filepath.Dir(p) == tmpl.Path && d.Name() == types.MetadataFileName {
			return nil
		}
		count++
		return nil
	})
	if err != nil {
		return 0, errors.WrapIO(err, errors.ErrCodeInternalError, "failed to count template files").WithPath(tmpl.Path)
	}
	return count, nil
}

// TempDir creates a scratch directory inside the templates root, under the
// hidden .temp directory so it never shows up as a template.
func (s *Store) TempDir(prefix string) (string, error) {
	base := filepath.Join(s.root, ".temp")
	if err := os.MkdirAll(base, 0755); err != nil {
		return "", errors.WrapIO(err, errors.ErrCodeInternalError, "failed to create scratch directory").WithPath(base)
	}
	dir, err := os.MkdirTemp(base, prefix)
	if err != nil {
		return "", errors.WrapIO(err, errors.ErrCodeInternalError, "failed to create scratch directory").WithPath(base)
	}
	return dir, nil
}

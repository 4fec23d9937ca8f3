// Package substitute replaces {{name}} placeholder tokens in template text.
//
// Replacement is literal: a key is never interpreted as a pattern, text
// inserted for one token is never scanned again, and tokens without a value
// are left exactly as written.
package substitute

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/conneroisu/quickstart/internal/archive"
	"github.com/conneroisu/quickstart/internal/errors"
	"github.com/conneroisu/quickstart/internal/logging"
)

// Token returns the placeholder written in templates for key.
func Token(key string) string {
	return "{{" + key + "}}"
}

// Replacer performs every substitution of a value map in a single pass.
type Replacer struct {
	r     *strings.Replacer
	empty bool
}

// NewReplacer builds a Replacer for values. Keys are sorted so the result
// never depends on map iteration order.
func NewReplacer(values map[string]string) *Replacer {
	keys := make([]string, 0, len(values))
	for k := range values {
		if k == "" {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys)*2)
	for _, k := range keys {
		pairs = append(pairs, Token(k), values[k])
	}

	return &Replacer{r: strings.NewReplacer(pairs...), empty: len(pairs) == 0}
}

// String substitutes every known token in text.
func (r *Replacer) String(text string) string {
	if r.empty || !strings.Contains(text, "{{") {
		return text
	}
	return r.r.Replace(text)
}

// Bytes substitutes tokens in content. Empty and binary content is returned
// unchanged.
func (r *Replacer) Bytes(content []byte) []byte {
	if len(content) == 0 || archive.IsBinary(content) {
		return content
	}
	return []byte(r.String(string(content)))
}

// String replaces every {{key}} in text with values[key].
func String(text string, values map[string]string) string {
	return NewReplacer(values).String(text)
}

// Bytes is String for file content; empty and binary content is untouched.
func Bytes(content []byte, values map[string]string) []byte {
	return NewReplacer(values).Bytes(content)
}

// DirectoryResult reports the files rewritten by Directory.
type DirectoryResult struct {
	Scanned int
	Changed []string
}

// Directory substitutes tokens in the content of every regular file below
// root. Only files whose content actually changes are written back, keeping
// their mode.
func Directory(ctx context.Context, root string, values map[string]string, logger logging.Logger) (*DirectoryResult, error) {
	logger = logging.OrNop(logger).WithComponent("substitute")
	r := NewReplacer(values)
	result := &DirectoryResult{}

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if !d.Type().IsRegular() {
			return nil
		}

		content, err := os.ReadFile(path)
		if err != nil {
			return errors.WrapIO(err, errors.ErrCodeInternalError, "failed to read file").WithPath(path)
		}
		result.Scanned++

		updated := r.Bytes(content)
		if string(updated) == string(content) {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return errors.WrapIO(err, errors.ErrCodeInternalError, "failed to stat file").WithPath(path)
		}
		if err := os.WriteFile(path, updated, info.Mode().Perm()); err != nil {
			return errors.WrapIO(err, errors.ErrCodeInternalError, "failed to write file").WithPath(path)
		}

		rel, _ := filepath.Rel(root, path)
		result.Changed = append(result.Changed, filepath.ToSlash(rel))
		logger.Debug(ctx, "Substituted placeholders", "file", rel)
		return nil
	})
	if err != nil {
		return result, err
	}

	return result, nil
}

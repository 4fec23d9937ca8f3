package archive

import (
	"encoding/base64"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"

	"github.com/conneroisu/quickstart/internal/types"
)

// Entry is one file or directory stored in an archive. Paths are relative to
// the template root and slash separated; directory paths end in "/".
type Entry struct {
	Path       string `json:"p"`
	Content    string `json:"c"`
	IsDir      bool   `json:"d,omitempty"`
	IsBinary   bool   `json:"b,omitempty"`
	Executable bool   `json:"x,omitempty"`
}

// DirEntry returns a directory entry for the relative path rel.
func DirEntry(rel string) Entry {
	return Entry{Path: strings.TrimSuffix(rel, "/") + "/", IsDir: true}
}

// FileEntry returns a file entry for rel holding content. Binary content and
// text that is not valid UTF-8 are stored as base64, since JSON strings
// cannot carry arbitrary bytes.
func FileEntry(rel string, content []byte) Entry {
	if IsBinary(content) || !utf8.Valid(content) {
		return Entry{
			Path:     rel,
			Content:  base64.StdEncoding.EncodeToString(content),
			IsBinary: true,
		}
	}
	return Entry{Path: rel, Content: string(content)}
}

// Bytes returns the raw content of a file entry.
func (e Entry) Bytes() ([]byte, error) {
	if !e.IsBinary {
		return []byte(e.Content), nil
	}
	data, err := base64.StdEncoding.DecodeString(e.Content)
	if err != nil {
		return nil, fmt.Errorf("entry %s: %w", e.Path, err)
	}
	return data, nil
}

// Serialize walks root and returns one entry per directory and file below it.
// Hidden entries are included, the metadata sidecar at the root is not.
// Directory entries come first, in walk order, followed by file entries.
func Serialize(root string) ([]Entry, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", root)
	}

	var dirs, files []Entry

	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		if rel == "." {
			return nil
		}
		rel = norm.NFC.String(filepath.ToSlash(rel))

		if rel == types.MetadataFileName {
			return nil
		}

		if d.IsDir() {
			dirs = append(dirs, DirEntry(rel))
			return nil
		}

		// Symlinks are followed but never descended into
		info, err := os.Stat(path)
		if err != nil {
			return fmt.Errorf("failed to stat %s: %w", path, err)
		}
		if info.IsDir() {
			dirs = append(dirs, DirEntry(rel))
			return nil
		}

		content, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", path, err)
		}

		entry := FileEntry(rel, content)
		entry.Executable = info.Mode().Perm()&0100 != 0
		files = append(files, entry)
		return nil
	})
	if err != nil {
		return nil, err
	}

	return append(dirs, files...), nil
}

// Package archive implements the .qst template archive: a versioned header
// followed by a gzip-compressed JSON document holding the template metadata
// and every file and directory of the template tree.
//
// Decoding is split in two phases. Unpack parses and validates an archive
// without touching the filesystem; Materialize writes decoded entries below a
// target directory.
package archive

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/klauspost/compress/gzip"

	"github.com/conneroisu/quickstart/internal/errors"
	"github.com/conneroisu/quickstart/internal/fsutil"
	"github.com/conneroisu/quickstart/internal/types"
	"github.com/conneroisu/quickstart/internal/validation"
)

// Extension is the file extension of template archives.
const Extension = ".qst"

// Magic starts every versioned archive. It is followed by one version byte.
const Magic = "QST"

// FormatVersion is the archive version written by Encode.
const FormatVersion byte = 1

// LegacyVersion is reported for archives written before the header existed.
const LegacyVersion = 0

var gzipMagic = []byte{0x1f, 0x8b}

// compactMetadata is the short-keyed metadata stored in an archive.
type compactMetadata struct {
	Name        string           `json:"n"`
	Description string           `json:"d"`
	CreatedAt   timestamp        `json:"c"`
	Variables   []types.Variable `json:"v"`
	Scripts     []types.Script   `json:"p"`
}

type document struct {
	Metadata compactMetadata `json:"m"`
	Files    []Entry         `json:"f"`
}

// Decoded is the result of Unpack: the archive content, not yet written anywhere.
type Decoded struct {
	Metadata types.Metadata
	Entries  []Entry
	// Version is the header version, or LegacyVersion for a bare gzip stream
	Version int
}

// Extract writes the decoded archive below target.
func (d *Decoded) Extract(target string) error {
	return Materialize(d.Entries, d.Metadata, target)
}

// FileCount returns the number of file entries.
func (d *Decoded) FileCount() int {
	n := 0
	for _, e := range d.Entries {
		if !e.IsDir {
			n++
		}
	}
	return n
}

// Pack serializes the tree at root together with meta into archive bytes.
func Pack(root string, meta types.Metadata) ([]byte, error) {
	entries, err := Serialize(root)
	if err != nil {
		return nil, errors.WrapIO(err, errors.ErrCodeInternalError, "failed to serialize template").WithPath(root)
	}
	return Encode(meta, entries)
}

// PackFile packs root into the archive file out. The file is replaced
// atomically so a failed pack never leaves a partial archive behind.
func PackFile(root string, meta types.Metadata, out string) error {
	data, err := Pack(root, meta)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(out), 0755); err != nil {
		return errors.WrapIO(err, errors.ErrCodeInternalError, "failed to create output directory").WithPath(out)
	}
	if err := fsutil.WriteFileAtomic(out, data, 0644); err != nil {
		return errors.WrapIO(err, errors.ErrCodeInternalError, "failed to write archive").WithPath(out)
	}
	return nil
}

// Encode builds archive bytes from metadata and entries.
func Encode(meta types.Metadata, entries []Entry) ([]byte, error) {
	meta.Normalize()
	if entries == nil {
		entries = []Entry{}
	}

	doc := document{
		Metadata: compactMetadata{
			Name:        meta.Name,
			Description: meta.Description,
			CreatedAt:   timestamp(meta.CreatedAt),
			Variables:   meta.Variables,
			Scripts:     meta.PostCreationScripts,
		},
		Files: entries,
	}

	payload, err := json.Marshal(doc)
	if err != nil {
		return nil, errors.NewInternalError(errors.ErrCodeInternalError, "failed to encode archive", err)
	}

	var buf bytes.Buffer
	buf.WriteString(Magic)
	buf.WriteByte(FormatVersion)

	zw, err := gzip.NewWriterLevel(&buf, gzip.BestCompression)
	if err != nil {
		return nil, errors.NewInternalError(errors.ErrCodeInternalError, "failed to create compressor", err)
	}
	if _, err := zw.Write(payload); err != nil {
		zw.Close()
		return nil, errors.NewInternalError(errors.ErrCodeInternalError, "failed to compress archive", err)
	}
	if err := zw.Close(); err != nil {
		return nil, errors.NewInternalError(errors.ErrCodeInternalError, "failed to compress archive", err)
	}

	return buf.Bytes(), nil
}

// Unpack decodes archive bytes. It never touches the filesystem. Every entry
// path and binary payload is validated so that a later Materialize can
// neither escape its target nor fail on corrupt content.
func Unpack(data []byte) (*Decoded, error) {
	payload, version, err := splitHeader(data)
	if err != nil {
		return nil, err
	}

	zr, err := gzip.NewReader(bytes.NewReader(payload))
	if err != nil {
		return nil, errors.ErrInvalidArchive(err)
	}
	defer zr.Close()

	raw, err := io.ReadAll(zr)
	if err != nil {
		return nil, errors.ErrInvalidArchive(err)
	}

	var doc document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, errors.ErrInvalidArchive(err)
	}

	entries := doc.Files
	if entries == nil {
		entries = []Entry{}
	}
	if err := validateEntries(entries); err != nil {
		return nil, err
	}

	meta := types.Metadata{
		Name:                doc.Metadata.Name,
		Description:         doc.Metadata.Description,
		CreatedAt:           time.Time(doc.Metadata.CreatedAt),
		Variables:           doc.Metadata.Variables,
		PostCreationScripts: doc.Metadata.Scripts,
	}
	meta.Normalize()

	return &Decoded{Metadata: meta, Entries: entries, Version: version}, nil
}

// UnpackFile reads and decodes the archive at path.
func UnpackFile(path string) (*Decoded, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NewIOError(errors.ErrCodeFileNotFound, "archive not found", err).WithPath(path)
		}
		return nil, errors.WrapIO(err, errors.ErrCodeInternalError, "failed to read archive").WithPath(path)
	}

	decoded, err := Unpack(data)
	if err != nil {
		if qe, ok := err.(*errors.QuickstartError); ok && qe.Path == "" {
			qe.WithPath(path)
		}
		return nil, err
	}
	return decoded, nil
}

// Materialize writes entries below target: directories first, then files,
// then the metadata sidecar. All entries are checked before the first write.
func Materialize(entries []Entry, meta types.Metadata, target string) error {
	contents := make(map[int][]byte, len(entries))
	if err := validateEntries(entries); err != nil {
		return err
	}
	for i, e := range entries {
		if e.IsDir {
			continue
		}
		data, err := e.Bytes()
		if err != nil {
			return errors.ErrInvalidArchive(err)
		}
		contents[i] = data
	}

	if err := os.MkdirAll(target, 0755); err != nil {
		return errors.WrapIO(err, errors.ErrCodeInternalError, "failed to create target directory").WithPath(target)
	}

	for _, e := range entries {
		if !e.IsDir {
			continue
		}
		dir := filepath.Join(target, filepath.FromSlash(strings.TrimSuffix(e.Path, "/")))
		if err := os.MkdirAll(dir, 0755); err != nil {
			return errors.WrapIO(err, errors.ErrCodeInternalError, "failed to create directory").WithPath(dir)
		}
	}

	for i, e := range entries {
		if e.IsDir {
			continue
		}
		dest := filepath.Join(target, filepath.FromSlash(e.Path))
		if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
			return errors.WrapIO(err, errors.ErrCodeInternalError, "failed to create directory").WithPath(dest)
		}
		perm := os.FileMode(0644)
		if e.Executable {
			perm = 0755
		}
		if err := os.WriteFile(dest, contents[i], perm); err != nil {
			return errors.WrapIO(err, errors.ErrCodeInternalError, "failed to write file").WithPath(dest)
		}
		// WriteFile keeps the mode of an existing file
		if err := os.Chmod(dest, perm); err != nil {
			return errors.WrapIO(err, errors.ErrCodeInternalError, "failed to set file mode").WithPath(dest)
		}
	}

	meta.Normalize()
	sidecar := filepath.Join(target, types.MetadataFileName)
	if err := fsutil.WriteJSON(sidecar, meta); err != nil {
		return errors.WrapIO(err, errors.ErrCodeInternalError, "failed to write metadata").WithPath(sidecar)
	}

	return nil
}

func splitHeader(data []byte) ([]byte, int, error) {
	switch {
	case len(data) == 0:
		return nil, 0, errors.ErrInvalidArchive(fmt.Errorf("empty archive"))
	case bytes.HasPrefix(data, []byte(Magic)):
		if len(data) < len(Magic)+1 {
			return nil, 0, errors.ErrInvalidArchive(fmt.Errorf("truncated header"))
		}
		version := data[len(Magic)]
		if version != FormatVersion {
			return nil, 0, errors.NewInputError(
				errors.ErrCodeArchiveVersion,
				fmt.Sprintf("unsupported archive version %d", version),
				nil,
			).WithContext("version", int(version))
		}
		return data[len(Magic)+1:], int(version), nil
	case bytes.HasPrefix(data, gzipMagic):
		return data, LegacyVersion, nil
	default:
		return nil, 0, errors.ErrInvalidArchive(fmt.Errorf("unrecognized archive header"))
	}
}

// validateEntries checks entry paths and binary payloads so that a decoded
// archive is known to be extractable before anything is written.
func validateEntries(entries []Entry) error {
	for _, e := range entries {
		if err := validation.ValidateEntryPath(e.Path); err != nil {
			return errors.Wrap(err, errors.ErrorTypeInput, errors.ErrCodeUnsafePath, "unsafe entry path").WithPath(e.Path)
		}
		if e.IsBinary && !e.IsDir {
			if _, err := e.Bytes(); err != nil {
				return errors.ErrInvalidArchive(err).WithPath(e.Path)
			}
		}
	}
	return nil
}

// timestamp is an ISO-8601 time string. Decoding is lenient: a missing,
// non-string or unparseable value yields the zero time instead of an error.
type timestamp time.Time

func (t timestamp) MarshalJSON() ([]byte, error) {
	tt := time.Time(t)
	if tt.IsZero() {
		return []byte(`""`), nil
	}
	return json.Marshal(tt.UTC().Format(time.RFC3339Nano))
}

func (t *timestamp) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		*t = timestamp{}
		return nil
	}
	*t = timestamp(parseTime(s))
	return nil
}

func parseTime(s string) time.Time {
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

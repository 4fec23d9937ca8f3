package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"

	"github.com/conneroisu/quickstart/internal/store"
	"github.com/conneroisu/quickstart/internal/types"
)

var titleCaser = cases.Title(language.English)

// templateSummary is one row of "list".
type templateSummary struct {
	Name        string    `json:"name" yaml:"name"`
	Description string    `json:"description" yaml:"description"`
	CreatedAt   time.Time `json:"createdAt" yaml:"createdAt"`
	Variables   int       `json:"variables" yaml:"variables"`
	Scripts     int       `json:"scripts" yaml:"scripts"`
	Path        string    `json:"path" yaml:"path"`
}

// templateDetail is the output of "info".
type templateDetail struct {
	Name                string           `json:"name" yaml:"name"`
	Description         string           `json:"description" yaml:"description"`
	CreatedAt           time.Time        `json:"createdAt" yaml:"createdAt"`
	Path                string           `json:"path" yaml:"path"`
	FileCount           int              `json:"fileCount" yaml:"fileCount"`
	Variables           []types.Variable `json:"variables" yaml:"variables"`
	PostCreationScripts []types.Script   `json:"postCreationScripts" yaml:"postCreationScripts"`
}

func summarize(t store.Template) templateSummary {
	return templateSummary{
		Name:        t.Metadata.Name,
		Description: t.Metadata.Description,
		CreatedAt:   t.Metadata.CreatedAt,
		Variables:   len(t.Metadata.Variables),
		Scripts:     len(t.Metadata.PostCreationScripts),
		Path:        t.Path,
	}
}

// writeStructured writes v as json or yaml. It reports false for any
// other format so the caller can render a table.
func writeStructured(w io.Writer, format string, v interface{}) (bool, error) {
	switch strings.ToLower(format) {
	case "json":
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		return true, encoder.Encode(v)
	case "yaml":
		encoder := yaml.NewEncoder(w)
		encoder.SetIndent(2)
		if err := encoder.Encode(v); err != nil {
			return true, err
		}
		return true, encoder.Close()
	default:
		return false, nil
	}
}

// writeFields renders label/value pairs as an aligned two-column block.
// Labels are title cased.
func writeFields(w io.Writer, indent string, fields [][2]string) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, f := range fields {
		if f[1] == "" {
			continue
		}
		fmt.Fprintf(tw, "%s%s:\t%s\n", indent, titleCaser.String(f[0]), f[1])
	}
	return tw.Flush()
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return "unknown"
	}
	return t.Local().Format("2006-01-02")
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func plural(n int, word string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, word)
	}
	return fmt.Sprintf("%d %ss", n, word)
}

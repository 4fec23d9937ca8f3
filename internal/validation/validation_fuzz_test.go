package validation

import (
	"path"
	"strings"
	"testing"
)

// FuzzValidateEntryPath checks that every accepted archive path stays inside
// the extraction root once cleaned.
func FuzzValidateEntryPath(f *testing.F) {
	f.Add("README.md")
	f.Add("src/")
	f.Add("{{name}}/{{name}}.go")
	f.Add("../etc/passwd")
	f.Add("a/../../b")
	f.Add("/abs")
	f.Add("C:\\x")
	f.Add("..\\..\\x")
	f.Add("")

	f.Fuzz(func(t *testing.T, p string) {
		if len(p) > 4096 {
			t.Skip("path too long")
		}

		if err := ValidateEntryPath(p); err != nil {
			return
		}

		cleaned := path.Clean(strings.ReplaceAll(p, "\\", "/"))
		if cleaned == ".." || strings.HasPrefix(cleaned, "../") || strings.HasPrefix(cleaned, "/") {
			t.Errorf("ValidateEntryPath accepted escaping path %q (cleaned %q)", p, cleaned)
		}
		if strings.ContainsRune(p, 0) {
			t.Errorf("ValidateEntryPath accepted path with null byte %q", p)
		}
	})
}

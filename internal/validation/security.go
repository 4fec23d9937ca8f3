// Package validation provides security validation functions for template
// names, archive entry paths and repository references so that untrusted
// input can never write outside the directory it targets.
package validation

import (
	"fmt"
	"path"
	"path/filepath"
	"regexp"
	"strings"
)

// repoPattern matches GitHub "owner/repo" references.
var repoPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9-]*/[A-Za-z0-9._-]+$`)

// ValidateEntryPath validates a slash-separated path stored in an archive.
// The path must stay inside the extraction root once joined to it.
func ValidateEntryPath(p string) error {
	if p == "" {
		return fmt.Errorf("path cannot be empty")
	}

	if strings.ContainsRune(p, 0) {
		return fmt.Errorf("path contains null byte")
	}

	// Both separators are checked since archives may come from any platform
	normalized := strings.ReplaceAll(p, "\\", "/")
	if strings.HasPrefix(normalized, "/") || filepath.IsAbs(p) || hasDriveLetter(normalized) {
		return fmt.Errorf("absolute path not allowed: %s", p)
	}

	cleaned := path.Clean(normalized)
	if cleaned == ".." || strings.HasPrefix(cleaned, "../") {
		return fmt.Errorf("path traversal detected: %s", p)
	}

	return nil
}

func hasDriveLetter(p string) bool {
	return len(p) >= 2 && p[1] == ':' &&
		((p[0] >= 'a' && p[0] <= 'z') || (p[0] >= 'A' && p[0] <= 'Z'))
}

// ValidateTemplateName validates a template name. Names become directory
// names inside the templates root, so they must be a single path segment.
func ValidateTemplateName(name string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("template name cannot be empty")
	}

	if name == "." || name == ".." {
		return fmt.Errorf("template name cannot be %q", name)
	}

	if strings.HasPrefix(name, ".") {
		return fmt.Errorf("template name cannot start with a dot")
	}

	if strings.ContainsAny(name, "/\\") {
		return fmt.Errorf("template name cannot contain path separators")
	}

	for _, r := range name {
		if r < 32 {
			return fmt.Errorf("template name contains control character")
		}
	}

	dangerousChars := []string{";", "&", "|", "$", "`", "<", ">", "\"", "*", "?", ":"}
	for _, char := range dangerousChars {
		if strings.Contains(name, char) {
			return fmt.Errorf("template name contains dangerous character: %s", char)
		}
	}

	return nil
}

// ValidateRepo validates a GitHub repository reference in owner/repo form.
func ValidateRepo(repo string) error {
	if !repoPattern.MatchString(repo) {
		return fmt.Errorf("repository must be in format owner/repo: %q", repo)
	}
	if strings.HasSuffix(repo, "/.") || strings.HasSuffix(repo, "/..") {
		return fmt.Errorf("invalid repository name: %q", repo)
	}
	return nil
}

// ValidateBranch validates a git branch name passed on the command line.
func ValidateBranch(branch string) error {
	if branch == "" {
		return nil
	}
	if strings.HasPrefix(branch, "-") {
		return fmt.Errorf("branch cannot start with '-': %s", branch)
	}
	if strings.Contains(branch, "..") {
		return fmt.Errorf("branch contains '..': %s", branch)
	}
	dangerous := []string{";", "&", "|", "$", "`", "(", ")", "<", ">", "\\", "\"", "'", " ", "~", "^", ":"}
	for _, char := range dangerous {
		if strings.Contains(branch, char) {
			return fmt.Errorf("branch contains dangerous character: %q", char)
		}
	}
	return nil
}

// ValidatePath validates a configured filesystem path such as the templates
// directory. Absolute paths are allowed; shell metacharacters are not.
func ValidatePath(p string) error {
	if p == "" {
		return fmt.Errorf("path cannot be empty")
	}

	dangerousChars := []string{";", "&", "|", "$", "`", "<", ">"}
	for _, char := range dangerousChars {
		if strings.Contains(p, char) {
			return fmt.Errorf("path contains dangerous character: %s", char)
		}
	}

	return nil
}

// SanitizeInput removes or escapes potentially dangerous characters from user input
func SanitizeInput(input string) string {
	// Remove null bytes
	input = strings.ReplaceAll(input, "\x00", "")

	// Remove control characters except common whitespace
	var sanitized strings.Builder
	for _, r := range input {
		if r >= 32 || r == '\t' || r == '\n' || r == '\r' {
			sanitized.WriteRune(r)
		}
	}

	return sanitized.String()
}

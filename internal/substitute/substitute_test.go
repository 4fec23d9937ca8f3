package substitute

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestString(t *testing.T) {
	testCases := []struct {
		name     string
		text     string
		values   map[string]string
		expected string
	}{
		{
			name:     "single token",
			text:     "Hello {{name}}!",
			values:   map[string]string{"name": "World"},
			expected: "Hello World!",
		},
		{
			name:     "repeated token",
			text:     "{{a}}-{{a}}-{{a}}",
			values:   map[string]string{"a": "x"},
			expected: "x-x-x",
		},
		{
			name:     "unknown token left verbatim",
			text:     "{{known}} {{unknown}}",
			values:   map[string]string{"known": "yes"},
			expected: "yes {{unknown}}",
		},
		{
			name:     "regex metacharacters in key",
			text:     "{{a.b}} {{a*b}} {{axb}}",
			values:   map[string]string{"a.b": "dot", "a*b": "star"},
			expected: "dot star {{axb}}",
		},
		{
			name:     "inserted text is not rescanned",
			text:     "{{first}}",
			values:   map[string]string{"first": "{{second}}", "second": "nope"},
			expected: "{{second}}",
		},
		{
			name:     "spacing inside braces is not a token",
			text:     "{{ name }}",
			values:   map[string]string{"name": "x"},
			expected: "{{ name }}",
		},
		{
			name:     "empty value",
			text:     "a{{gone}}b",
			values:   map[string]string{"gone": ""},
			expected: "ab",
		},
		{
			name:     "text without tokens is untouched",
			text:     "{ name } }} {{ \u00e9\u00e8",
			values:   map[string]string{"name": "x"},
			expected: "{ name } }} {{ \u00e9\u00e8",
		},
		{
			name:     "nil map",
			text:     "{{x}}",
			values:   nil,
			expected: "{{x}}",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, String(tc.text, tc.values))
		})
	}
}

func TestBytes(t *testing.T) {
	values := map[string]string{"x": "y"}

	assert.Equal(t, []byte("y"), Bytes([]byte("{{x}}"), values))
	assert.Empty(t, Bytes(nil, values))

	binary := []byte("{{x}}\x00{{x}}")
	assert.Equal(t, binary, Bytes(binary, values))
}

func TestDirectory(t *testing.T) {
	root := t.TempDir()
	write := func(rel string, content []byte, perm os.FileMode) {
		path := filepath.Join(root, rel)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, content, perm))
	}
	write("README.md", []byte("# {{projectName}} by {{author}}"), 0644)
	write("src/run.sh", []byte("echo {{projectName}}"), 0755)
	write("static.txt", []byte("nothing here"), 0644)
	write("image.bin", []byte("{{projectName}}\x00"), 0644)
	write("empty", nil, 0644)

	values := map[string]string{"projectName": "demo", "author": "Ada"}
	result, err := Directory(context.Background(), root, values, nil)
	require.NoError(t, err)

	assert.Equal(t, 5, result.Scanned)
	assert.ElementsMatch(t, []string{"README.md", "src/run.sh"}, result.Changed)

	readme, err := os.ReadFile(filepath.Join(root, "README.md"))
	require.NoError(t, err)
	assert.Equal(t, "# demo by Ada", string(readme))

	bin, err := os.ReadFile(filepath.Join(root, "image.bin"))
	require.NoError(t, err)
	assert.Equal(t, []byte("{{projectName}}\x00"), bin)

	info, err := os.Stat(filepath.Join(root, "src", "run.sh"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0755), info.Mode().Perm())
}

func TestDirectoryCancelled(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "a"), []byte("{{x}}"), 0644))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Directory(ctx, root, map[string]string{"x": "y"}, nil)
	assert.ErrorIs(t, err, context.Canceled)
}

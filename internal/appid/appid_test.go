package appid

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveStable(t *testing.T) {
	first, err := Resolve("/opt/applications/Calculator")
	require.NoError(t, err)

	for i := 0; i < 10; i++ {
		again, err := Resolve("/opt/applications/Calculator")
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestResolveDistinctPaths(t *testing.T) {
	a, err := Resolve("/opt/applications/Calculator")
	require.NoError(t, err)
	b, err := Resolve("/home/dev/Applications/Calculator")
	require.NoError(t, err)

	// Same directory name, different locations: IDs must not collide.
	assert.NotEqual(t, a, b)
	assert.True(t, strings.HasPrefix(a, "calculator-"))
	assert.True(t, strings.HasPrefix(b, "calculator-"))
}

func TestResolveFilesystemSafe(t *testing.T) {
	tests := []struct {
		name string
		path string
		want string
	}{
		{name: "spaces and case", path: "/apps/My Cool App", want: "my-cool-app-"},
		{name: "unicode name", path: "/apps/日本語アプリ", want: "bundle-"},
		{name: "punctuation runs", path: "/apps/a...b!!c", want: "a-b-c-"},
		{name: "trailing slash ignored", path: "/apps/tool/", want: "tool-"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			id, err := Resolve(tc.path)
			require.NoError(t, err)
			assert.True(t, strings.HasPrefix(id, tc.want), "got %q", id)
			assert.NotContains(t, id, "/")
			assert.NotContains(t, id, " ")
		})
	}
}

func TestResolveTrailingSlashEquivalence(t *testing.T) {
	a, err := Resolve("/apps/tool")
	require.NoError(t, err)
	b, err := Resolve("/apps/tool/")
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestResolveInvalidPath(t *testing.T) {
	for _, path := range []string{"", "   ", ".", "/"} {
		_, err := Resolve(path)
		assert.ErrorIs(t, err, ErrInvalidPath, "path %q", path)
	}
}

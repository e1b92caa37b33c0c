package language

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/codegraph-mcp/pkg/types"
)

func TestDetect(t *testing.T) {
	tests := []struct {
		path string
		want types.Language
	}{
		{"src/app.js", types.LanguageJavaScript},
		{"src/App.JSX", types.LanguageJavaScript},
		{"src/b.ts", types.LanguageTypeScript},
		{"src/view.tsx", types.LanguageTypeScript},
		{"pkg/db.py", types.LanguagePython},
		{"Main.java", types.LanguageJava},
		{"Main.kt", types.LanguageKotlin},
		{"lib/util.h", types.LanguageC},
		{"lib/util.hpp", types.LanguageCPP},
		{"Program.cs", types.LanguageCSharp},
		{"app/views/index.erb", types.LanguageRuby},
		{"main.go", types.LanguageGo},
		{"src/lib.rs", types.LanguageRust},
		{"README.md", types.LanguageMarkdown},
		{"config.yml", types.LanguageYAML},
		{"run.ps1", types.LanguagePowerShell},
		{"notebook.ipynb", types.LanguageJupyter},
		{"style.sass", types.LanguageSCSS},
		{"Makefile", types.LanguageUnknown},
		{"archive.xyz", types.LanguageUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, Detect(tt.path))
		})
	}
}

func TestSupported(t *testing.T) {
	langs := Supported()
	assert.Contains(t, langs, types.LanguagePython)
	assert.Contains(t, langs, types.LanguageGo)
	assert.NotContains(t, langs, types.LanguageUnknown)

	seen := make(map[types.Language]bool)
	for _, l := range langs {
		assert.False(t, seen[l], "duplicate language %s", l)
		seen[l] = true
	}
}

func TestIsIgnoredDir(t *testing.T) {
	for _, name := range []string{".git", "node_modules", "vendor", "__pycache__", ".venv", "dist", ".pytest_cache"} {
		assert.True(t, IsIgnoredDir(name), name)
	}
	for _, name := range []string{"src", "internal", "lib", "gitlab"} {
		assert.False(t, IsIgnoredDir(name), name)
	}
}

func TestIsBinaryExt(t *testing.T) {
	assert.True(t, IsBinaryExt("logo.PNG"))
	assert.True(t, IsBinaryExt("lib/native.so"))
	assert.False(t, IsBinaryExt("main.go"))
	assert.False(t, IsBinaryExt("README"))
}

func TestIsBinaryContent(t *testing.T) {
	t.Run("plain text", func(t *testing.T) {
		assert.False(t, IsBinaryContent([]byte("package main\n\nfunc main() {}\n")))
	})

	t.Run("utf8 text", func(t *testing.T) {
		assert.False(t, IsBinaryContent([]byte("# héllo wörld ✓\n")))
	})

	t.Run("null byte", func(t *testing.T) {
		assert.True(t, IsBinaryContent([]byte("abc\x00def")))
	})

	t.Run("invalid utf8", func(t *testing.T) {
		assert.True(t, IsBinaryContent([]byte{'a', 0xff, 0xfe, 'b'}))
	})

	t.Run("null byte past sniff window", func(t *testing.T) {
		content := make([]byte, SniffLength+10)
		for i := range content {
			content[i] = 'a'
		}
		content[SniffLength+5] = 0
		// Null bytes beyond the window are still valid UTF-8
		assert.False(t, IsBinaryContent(content))
	})

	t.Run("empty", func(t *testing.T) {
		assert.False(t, IsBinaryContent(nil))
	})
}

func TestMatcher(t *testing.T) {
	t.Run("no gitignore", func(t *testing.T) {
		m, err := NewMatcher(t.TempDir(), nil)
		require.NoError(t, err)
		assert.False(t, m.Match("src/app.js"))
		assert.False(t, m.MatchDir("out"))
	})

	t.Run("gitignore rules", func(t *testing.T) {
		root := t.TempDir()
		rules := "# generated\n*.log\nout/\n/secrets.txt\n"
		require.NoError(t, os.WriteFile(filepath.Join(root, ".gitignore"), []byte(rules), 0644))

		m, err := NewMatcher(root, nil)
		require.NoError(t, err)

		assert.True(t, m.Match("debug.log"))
		assert.True(t, m.Match("logs/app.log"))
		assert.True(t, m.MatchDir("out"))
		assert.True(t, m.Match("out/bundle.js"))
		assert.True(t, m.Match("secrets.txt"))
		assert.False(t, m.Match("src/app.js"))
		assert.False(t, m.MatchDir("src"))
	})

	t.Run("extra patterns", func(t *testing.T) {
		m, err := NewMatcher(t.TempDir(), []string{"fixtures/"})
		require.NoError(t, err)
		assert.True(t, m.MatchDir("test/fixtures"))
		assert.False(t, m.MatchDir("test"))
	})

	t.Run("nil matcher", func(t *testing.T) {
		var m *Matcher
		assert.False(t, m.Match("anything"))
	})
}

package language

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	ignore "github.com/sabhiram/go-gitignore"
)

// SniffLength is how many leading bytes are checked for a null byte
const SniffLength = 8000

var ignoredDirs = map[string]bool{
	".git":          true,
	".hg":           true,
	".svn":          true,
	"node_modules":  true,
	"vendor":        true,
	"__pycache__":   true,
	"venv":          true,
	".venv":         true,
	"env":           true,
	"build":         true,
	"dist":          true,
	"target":        true,
	".cache":        true,
	".idea":         true,
	".vscode":       true,
	".vs":           true,
	".github":       true,
	"coverage":      true,
	".next":         true,
	".tox":          true,
	".mypy_cache":   true,
	".pytest_cache": true,
}

var binaryExts = map[string]bool{
	".png": true, ".jpg": true, ".jpeg": true, ".gif": true, ".bmp": true,
	".ico": true, ".webp": true, ".tiff": true, ".psd": true,
	".pdf": true, ".doc": true, ".docx": true, ".xls": true, ".xlsx": true,
	".ppt": true, ".pptx": true,
	".zip": true, ".tar": true, ".gz": true, ".tgz": true, ".bz2": true,
	".xz": true, ".7z": true, ".rar": true, ".jar": true, ".war": true,
	".exe": true, ".dll": true, ".so": true, ".dylib": true, ".a": true,
	".o": true, ".obj": true, ".lib": true, ".bin": true, ".class": true,
	".pyc": true, ".pyo": true, ".wasm": true,
	".mp3": true, ".mp4": true, ".wav": true, ".avi": true, ".mov": true,
	".mkv": true, ".flac": true, ".ogg": true,
	".ttf": true, ".otf": true, ".woff": true, ".woff2": true, ".eot": true,
	".db": true, ".sqlite": true, ".sqlite3": true,
}

// IsIgnoredDir reports whether a directory with this name is pruned from the walk
func IsIgnoredDir(name string) bool {
	return ignoredDirs[name]
}

// IsBinaryExt reports whether the extension of path is a known binary format
func IsBinaryExt(path string) bool {
	return binaryExts[strings.ToLower(filepath.Ext(path))]
}

// IsBinaryContent reports whether content contains a null byte within the
// first SniffLength bytes or is not valid UTF-8
func IsBinaryContent(content []byte) bool {
	head := content
	if len(head) > SniffLength {
		head = head[:SniffLength]
	}
	if bytes.IndexByte(head, 0) >= 0 {
		return true
	}
	return !utf8.Valid(content)
}

// Matcher decides whether a repo-relative path is excluded by ignore rules
type Matcher struct {
	rules *ignore.GitIgnore
}

// NewMatcher compiles the .gitignore at the root of the tree (if any) together
// with extra patterns in gitignore syntax
func NewMatcher(root string, extra []string) (*Matcher, error) {
	lines := append([]string{}, extra...)

	data, err := os.ReadFile(filepath.Join(root, ".gitignore"))
	switch {
	case err == nil:
		lines = append(lines, strings.Split(string(data), "\n")...)
	case errors.Is(err, os.ErrNotExist):
	default:
		return nil, err
	}

	if len(lines) == 0 {
		return &Matcher{}, nil
	}
	return &Matcher{rules: ignore.CompileIgnoreLines(lines...)}, nil
}

// Match reports whether relPath (forward slashes) is ignored
func (m *Matcher) Match(relPath string) bool {
	if m == nil || m.rules == nil {
		return false
	}
	return m.rules.MatchesPath(relPath)
}

// MatchDir reports whether the directory relPath is ignored. Directory-only
// patterns such as "out/" only match with the trailing slash.
func (m *Matcher) MatchDir(relPath string) bool {
	return m.Match(relPath) || m.Match(strings.TrimSuffix(relPath, "/")+"/")
}

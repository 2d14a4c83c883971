package pathutil

import (
	"net/url"
	"path/filepath"
	"runtime"
	"strings"
)

// FileScheme is the URI prefix desktop settings dialogs put in front of local paths.
const FileScheme = "file://"

// StripFileScheme removes a leading file:// prefix. Percent-encoded
// characters in a URI are decoded; undecodable input is returned as-is.
func StripFileScheme(path string) string {
	if !strings.HasPrefix(path, FileScheme) {
		return path
	}
	trimmed := strings.TrimPrefix(path, FileScheme)
	if decoded, err := url.PathUnescape(trimmed); err == nil {
		return decoded
	}
	return trimmed
}

// NormalizeDirectory turns a user-supplied directory value into a clean
// absolute path: file:// stripped, ~ and environment variables expanded.
// An empty (or whitespace-only) value stays empty.
func NormalizeDirectory(path string) (string, error) {
	path = strings.TrimSpace(StripFileScheme(strings.TrimSpace(path)))
	if path == "" {
		return "", nil
	}
	expanded, err := Expand(path)
	if err != nil {
		return "", err
	}
	return filepath.Clean(expanded), nil
}

// NormalizeForLookup creates a canonical, case-normalized path suitable for use as a map key or in comparisons.
// It performs the following steps:
// 1. Makes the path absolute.
// 2. Evaluates any symbolic links.
// 3. On case-insensitive OSes (macOS, Windows), converts the path to lowercase.
func NormalizeForLookup(path string) (string, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	canonicalPath, err := filepath.EvalSymlinks(absPath)
	if err != nil {
		// Path may not exist yet.
		canonicalPath = absPath
	}

	if runtime.GOOS == "darwin" || runtime.GOOS == "windows" {
		return strings.ToLower(canonicalPath), nil
	}

	return canonicalPath, nil
}

// ComparePaths checks if two paths refer to the same location, respecting OS case sensitivity.
func ComparePaths(path1, path2 string) (bool, error) {
	norm1, err := NormalizeForLookup(path1)
	if err != nil {
		return false, err
	}
	norm2, err := NormalizeForLookup(path2)
	if err != nil {
		return false, err
	}
	return norm1 == norm2, nil
}

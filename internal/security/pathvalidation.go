// Package security guards filesystem paths built from externally supplied
// values. Vehicle identities and class labels come from the tracker and
// detector, so anything derived from them must be sanitised before it becomes
// part of an evidence filename.
package security

import (
	"fmt"
	"path/filepath"
	"strings"
)

// SanitizeComponent reduces an externally supplied string to a safe filename
// component: path separators and non-printable characters are replaced with
// underscores, and an empty result falls back to "unknown".
func SanitizeComponent(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '-' || r == '_' || r == '.':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	out := strings.Trim(b.String(), ".")
	if out == "" {
		return "unknown"
	}
	return out
}

// ValidatePathWithinDirectory rejects paths that resolve outside dir. It
// protects evidence writes against traversal sequences smuggled through
// tracker identities.
func ValidatePathWithinDirectory(path, dir string) error {
	absPath, err := filepath.Abs(filepath.Clean(path))
	if err != nil {
		return fmt.Errorf("failed to resolve path: %w", err)
	}
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return fmt.Errorf("failed to resolve directory: %w", err)
	}

	rel, err := filepath.Rel(absDir, absPath)
	if err != nil {
		return fmt.Errorf("path is outside %s: %w", dir, err)
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return fmt.Errorf("path traversal detected: %s escapes %s", path, dir)
	}
	return nil
}

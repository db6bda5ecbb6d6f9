package lingoutil

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/lingodb/lingo/internal/lingoerr"
)

// Limits mirrored from the reference implementation's security module: a
// database file is bounded, a query string is bounded, and a result limit
// is bounded, so a hostile or corrupt input cannot force unbounded work.
const (
	MaxFileSize    = 100 * 1024 * 1024 // 100MB
	MaxQueryLength = 10 * 1024         // 10KB
	MaxResultNodes = 10_000
)

// ValidatePath rejects path traversal attempts and, once resolved, files
// larger than MaxFileSize. It does not require the file to exist: Builder.Build
// calls it against a path that may not exist yet, so the size check is
// skipped when os.Stat fails.
func ValidatePath(path string) (string, error) {
	if strings.Contains(path, "..") || strings.Contains(path, "~") {
		slog.Warn("path validation rejected traversal attempt", "path", path)
		return "", lingoerr.New(lingoerr.KindPathTraversal, path, nil)
	}

	resolved, err := filepath.Abs(path)
	if err != nil {
		slog.Warn("path validation failed to resolve absolute path", "path", path, "error", err)
		return "", lingoerr.New(lingoerr.KindPathTraversal, path, err)
	}
	if real, err := filepath.EvalSymlinks(resolved); err == nil {
		resolved = real
	}

	if info, err := os.Stat(resolved); err == nil {
		if uint64(info.Size()) > MaxFileSize {
			slog.Warn("path validation rejected oversized file",
				"path", resolved, "size", info.Size(), "max", MaxFileSize)
			return "", lingoerr.New(lingoerr.KindFileTooLarge, path, nil)
		}
	}

	slog.Debug("path validated", "path", resolved)
	return resolved, nil
}

// ValidateQuery rejects overlong query strings and embedded control bytes
// that have no business in a query expression.
func ValidateQuery(query string) error {
	if len(query) > MaxQueryLength {
		return lingoerr.New(lingoerr.KindQueryTooLong, query[:32]+"...", nil)
	}
	for _, r := range query {
		if r == 0 {
			return lingoerr.New(lingoerr.KindQueryTooLong, "query contains null byte", nil)
		}
		if unicode.IsControl(r) && r != '\n' && r != '\r' && r != '\t' {
			return lingoerr.New(lingoerr.KindQueryTooLong, "query contains control character", nil)
		}
	}
	return nil
}

// ValidateLimit rejects a zero or unreasonably large result limit before it
// reaches the compiler.
func ValidateLimit(limit int) error {
	if limit <= 0 {
		return lingoerr.New(lingoerr.KindLimitOutOfRange, "limit must be > 0", nil)
	}
	if limit > MaxResultNodes {
		return lingoerr.New(lingoerr.KindLimitOutOfRange, "limit exceeds maximum", nil)
	}
	return nil
}

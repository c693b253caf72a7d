// Package lang derives editor language hints and MIME types from file names.
package lang

import (
	"fmt"
	"path"
	"strings"
)

var languageByExt = map[string]string{
	"js":   "javascript",
	"jsx":  "javascript",
	"ts":   "typescript",
	"tsx":  "typescript",
	"py":   "python",
	"html": "html",
	"htm":  "html",
	"css":  "css",
	"scss": "scss",
	"sass": "sass",
	"json": "json",
	"md":   "markdown",
	"txt":  "plaintext",
	"xml":  "xml",
	"yml":  "yaml",
	"yaml": "yaml",
	"sh":   "shell",
	"bash": "shell",
	"sql":  "sql",
	"php":  "php",
	"java": "java",
	"cpp":  "cpp",
	"c":    "c",
	"cs":   "csharp",
	"go":   "go",
	"rs":   "rust",
	"rb":   "ruby",
}

var mimeByExt = map[string]string{
	"js":   "application/javascript",
	"jsx":  "application/javascript",
	"ts":   "application/typescript",
	"tsx":  "application/typescript",
	"py":   "text/x-python",
	"html": "text/html",
	"htm":  "text/html",
	"css":  "text/css",
	"json": "application/json",
	"md":   "text/markdown",
	"xml":  "application/xml",
	"yml":  "application/yaml",
	"yaml": "application/yaml",
	"sh":   "application/x-sh",
	"svg":  "image/svg+xml",
}

// Extension returns the lowercased extension of name without the dot, or ""
// when name has none.
func Extension(name string) string {
	ext := path.Ext(name)
	if ext == "" {
		return ""
	}
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

// Detect returns the editor language for a file name, defaulting to
// plaintext for unknown extensions.
func Detect(name string) string {
	if l, ok := languageByExt[Extension(name)]; ok {
		return l
	}
	return "plaintext"
}

// MimeType returns the MIME type for a file name, defaulting to text/plain.
func MimeType(name string) string {
	if m, ok := mimeByExt[Extension(name)]; ok {
		return m
	}
	return "text/plain"
}

// HumanSize formats a byte count the way the editor's status bar shows it.
func HumanSize(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for v := n / unit; v >= unit; v /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(n)/float64(div), "KMGTPE"[exp])
}

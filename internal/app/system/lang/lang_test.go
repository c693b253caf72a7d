package lang

import "testing"

func TestDetect(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"index.js", "javascript"},
		{"App.jsx", "javascript"},
		{"server.TS", "typescript"},
		{"main.py", "python"},
		{"index.html", "html"},
		{"style.css", "css"},
		{"README.md", "markdown"},
		{"Makefile", "plaintext"},
		{"weird.xyz", "plaintext"},
		{"nested/path/mod.go", "go"},
	}
	for _, tt := range tests {
		if got := Detect(tt.name); got != tt.want {
			t.Errorf("Detect(%q) = %q, want %q", tt.name, got, tt.want)
		}
	}
}

func TestExtension(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"a.JS", "js"},
		{"archive.tar.gz", "gz"},
		{"noext", ""},
		{".gitignore", "gitignore"},
	}
	for _, tt := range tests {
		if got := Extension(tt.name); got != tt.want {
			t.Errorf("Extension(%q) = %q, want %q", tt.name, got, tt.want)
		}
	}
}

func TestMimeType(t *testing.T) {
	if got := MimeType("app.js"); got != "application/javascript" {
		t.Errorf("MimeType(app.js) = %q", got)
	}
	if got := MimeType("unknown.bin"); got != "text/plain" {
		t.Errorf("MimeType default = %q", got)
	}
}

func TestHumanSize(t *testing.T) {
	tests := []struct {
		n    int64
		want string
	}{
		{512, "512 B"},
		{2048, "2.0 KB"},
		{1536, "1.5 KB"},
		{3 * 1024 * 1024, "3.0 MB"},
	}
	for _, tt := range tests {
		if got := HumanSize(tt.n); got != tt.want {
			t.Errorf("HumanSize(%d) = %q, want %q", tt.n, got, tt.want)
		}
	}
}

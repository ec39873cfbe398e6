package exclude

import (
	"os"
	"path/filepath"
	"testing"
)

func TestMatchGlob(t *testing.T) {
	tests := []struct {
		pattern string
		path    string
		want    bool
	}{
		{"vendor/**", "vendor/lib/a.go", true},
		// "**" spans zero or more segments, so the directory itself
		// matches too; the scanner uses this to prune whole subtrees.
		{"vendor/**", "vendor", true},
		{"vendor/**", "src/vendor.py", false},
		{"**/testdata/**", "a/b/testdata/x.py", true},
		{"**/testdata/**", "testdata/x.py", true},
		{"**/testdata/**", "src/data/x.py", false},
		{"*.min.js", "app.min.js", true},
		{"*.min.js", "lib/app.min.js", false},
		{"**/*.min.js", "lib/app.min.js", true},
		{"node_modules/**", "node_modules/react/index.js", true},
	}
	for _, tt := range tests {
		t.Run(tt.pattern+" vs "+tt.path, func(t *testing.T) {
			if got := matchGlob(tt.pattern, tt.path); got != tt.want {
				t.Errorf("matchGlob(%q, %q) = %v, want %v", tt.pattern, tt.path, got, tt.want)
			}
		})
	}
}

func TestDetectNodeModules(t *testing.T) {
	root := t.TempDir()
	mustWrite(t, filepath.Join(root, "package.json"), "{}")
	mustMkdir(t, filepath.Join(root, "node_modules", "react"))
	mustMkdir(t, filepath.Join(root, "src"))

	m := NewMatcher(root, nil)

	if !m.Skip("node_modules/react/index.js") {
		t.Error("node_modules should be skipped when package.json is present")
	}
	if m.Skip("src/app.js") {
		t.Error("src should not be skipped")
	}
}

func TestDetectRequiresMarker(t *testing.T) {
	root := t.TempDir()
	// A "target" directory with no Cargo.toml sibling is ordinary source.
	mustMkdir(t, filepath.Join(root, "target"))

	m := NewMatcher(root, nil)

	if m.Skip("target/main.rs") {
		t.Error("target without Cargo.toml must not be auto-excluded")
	}
}

func TestDetectNestedProject(t *testing.T) {
	root := t.TempDir()
	nested := filepath.Join(root, "tools", "gen")
	mustWrite(t, filepath.Join(nested, "Cargo.toml"), "[package]")
	mustMkdir(t, filepath.Join(nested, "target", "debug"))

	m := NewMatcher(root, nil)

	if !m.Skip("tools/gen/target/debug/main.rs") {
		t.Error("nested cargo target should be skipped")
	}
}

func TestAlwaysSkipDirs(t *testing.T) {
	root := t.TempDir()
	mustMkdir(t, filepath.Join(root, ".git", "objects"))
	mustMkdir(t, filepath.Join(root, "pkg", "__pycache__"))

	m := NewMatcher(root, nil)

	if !m.Skip(".git/objects/ab") {
		t.Error(".git should always be skipped")
	}
	if !m.Skip("pkg/__pycache__/mod.pyc") {
		t.Error("__pycache__ should always be skipped")
	}
}

func TestConfiguredPatterns(t *testing.T) {
	m := NewMatcher(t.TempDir(), []string{"generated/**", "**/*.pb.py"})

	if !m.Skip("generated/api.py") {
		t.Error("configured glob should skip generated/")
	}
	if !m.Skip("proto/api.pb.py") {
		t.Error("configured glob should skip *.pb.py anywhere")
	}
	if m.Skip("src/api.py") {
		t.Error("unmatched path should not be skipped")
	}
}

func TestDetected(t *testing.T) {
	root := t.TempDir()
	mustWrite(t, filepath.Join(root, "go.mod"), "module x")
	mustMkdir(t, filepath.Join(root, "vendor", "dep"))

	m := NewMatcher(root, nil)

	found := false
	for _, d := range m.Detected() {
		if d == "vendor" {
			found = true
		}
	}
	if !found {
		t.Errorf("Detected() = %v, want to include vendor", m.Detected())
	}
}

func mustWrite(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func mustMkdir(t *testing.T, path string) {
	t.Helper()
	if err := os.MkdirAll(path, 0755); err != nil {
		t.Fatal(err)
	}
}

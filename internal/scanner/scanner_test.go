package scanner

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/panbanda/facet/pkg/config"
)

func createFiles(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		path := filepath.Join(root, name)
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}
}

func TestNewScanner(t *testing.T) {
	// With nil config
	s := NewScanner(nil)
	if s == nil {
		t.Fatal("NewScanner(nil) returned nil")
	}
	if s.config == nil {
		t.Error("scanner.config should not be nil when passing nil")
	}

	// With explicit config
	cfg := config.DefaultConfig()
	s = NewScanner(cfg)
	if s.config != cfg {
		t.Error("scanner.config should be the provided config")
	}
}

func TestScanDir(t *testing.T) {
	tmpDir := t.TempDir()
	createFiles(t, tmpDir, map[string]string{
		"orders.csv":          "a,b\n1,2\n",
		"metrics.tsv":         "a\tb\n",
		"events.jsonl":        "{}\n",
		"data/regions.json":   "[]",
		"notes.txt":           "not a dataset\n",
		"README.md":           "# readme\n",
		"data/schema.graphql": "type Query {}\n",
	})

	s := NewScanner(config.DefaultConfig())
	files, err := s.ScanDir(tmpDir)
	if err != nil {
		t.Fatalf("ScanDir() error = %v", err)
	}

	if len(files) != 4 {
		t.Errorf("ScanDir() found %d files, want 4: %v", len(files), files)
	}
	for _, f := range files {
		switch filepath.Ext(f) {
		case ".csv", ".tsv", ".json", ".jsonl":
		default:
			t.Errorf("ScanDir() picked up non-dataset file %s", f)
		}
	}
}

func TestScanDirExcludesDirectories(t *testing.T) {
	tmpDir := t.TempDir()
	createFiles(t, tmpDir, map[string]string{
		"orders.csv":               "a\n1\n",
		"node_modules/pkg.json":    "{}",
		"vendor/dep.csv":           "a\n1\n",
		".facet/cache/result.json": "{}",
	})

	s := NewScanner(config.DefaultConfig())
	files, err := s.ScanDir(tmpDir)
	if err != nil {
		t.Fatalf("ScanDir() error = %v", err)
	}

	if len(files) != 1 {
		t.Errorf("ScanDir() = %v, want just orders.csv", files)
	}
}

func TestScanDirExcludesPatterns(t *testing.T) {
	tmpDir := t.TempDir()
	createFiles(t, tmpDir, map[string]string{
		"orders.csv":        "a\n1\n",
		"orders_sample.csv": "a\n1\n",
	})

	s := NewScanner(config.DefaultConfig())
	files, err := s.ScanDir(tmpDir)
	if err != nil {
		t.Fatalf("ScanDir() error = %v", err)
	}

	if len(files) != 1 || filepath.Base(files[0]) != "orders.csv" {
		t.Errorf("ScanDir() = %v, want just orders.csv", files)
	}
}

func TestScanFile(t *testing.T) {
	tmpDir := t.TempDir()
	createFiles(t, tmpDir, map[string]string{
		"orders.csv": "a\n1\n",
		"notes.txt":  "text\n",
	})

	s := NewScanner(config.DefaultConfig())

	ok, err := s.ScanFile(filepath.Join(tmpDir, "orders.csv"))
	if err != nil {
		t.Fatalf("ScanFile() error = %v", err)
	}
	if !ok {
		t.Error("ScanFile() should accept orders.csv")
	}

	ok, err = s.ScanFile(filepath.Join(tmpDir, "notes.txt"))
	if err != nil {
		t.Fatalf("ScanFile() error = %v", err)
	}
	if ok {
		t.Error("ScanFile() should reject notes.txt")
	}

	ok, err = s.ScanFile(tmpDir)
	if err != nil {
		t.Fatalf("ScanFile() on dir error = %v", err)
	}
	if ok {
		t.Error("ScanFile() should reject directories")
	}
}

func TestScanFileNonExistent(t *testing.T) {
	s := NewScanner(nil)
	_, err := s.ScanFile("/nonexistent/orders.csv")
	if err == nil {
		t.Error("ScanFile() should return error for non-existent file")
	}
}

func TestScanDirWithGitignore(t *testing.T) {
	tmpDir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(tmpDir, ".git"), 0755); err != nil {
		t.Fatal(err)
	}
	createFiles(t, tmpDir, map[string]string{
		".gitignore":      "exports/\n",
		"orders.csv":      "a\n1\n",
		"exports/out.csv": "a\n1\n",
	})

	s := NewScanner(config.DefaultConfig())
	files, err := s.ScanDir(tmpDir)
	if err != nil {
		t.Fatalf("ScanDir() error = %v", err)
	}

	for _, f := range files {
		if filepath.Base(f) == "out.csv" {
			t.Error("ScanDir() should honor .gitignore and skip exports/")
		}
	}
}

func TestScanDirDisabledGitignore(t *testing.T) {
	tmpDir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(tmpDir, ".git"), 0755); err != nil {
		t.Fatal(err)
	}
	createFiles(t, tmpDir, map[string]string{
		".gitignore":      "exports/\n",
		"exports/out.csv": "a\n1\n",
	})

	cfg := config.DefaultConfig()
	cfg.Exclude.Gitignore = false
	s := NewScanner(cfg)
	files, err := s.ScanDir(tmpDir)
	if err != nil {
		t.Fatalf("ScanDir() error = %v", err)
	}

	found := false
	for _, f := range files {
		if filepath.Base(f) == "out.csv" {
			found = true
		}
	}
	if !found {
		t.Error("ScanDir() with gitignore disabled should find exports/out.csv")
	}
}

func TestScanDirEmptyDirectory(t *testing.T) {
	s := NewScanner(nil)
	files, err := s.ScanDir(t.TempDir())
	if err != nil {
		t.Fatalf("ScanDir() error = %v", err)
	}
	if len(files) != 0 {
		t.Errorf("ScanDir() on empty dir = %v, want none", files)
	}
}

func TestFilterBySize(t *testing.T) {
	tmpDir := t.TempDir()
	createFiles(t, tmpDir, map[string]string{
		"small.csv": "a\n1\n",
		"big.csv":   string(make([]byte, 2048)),
	})
	small := filepath.Join(tmpDir, "small.csv")
	big := filepath.Join(tmpDir, "big.csv")

	filtered, skipped := FilterBySize([]string{small, big}, 1024)
	if len(filtered) != 1 || filtered[0] != small {
		t.Errorf("FilterBySize() = %v, want [%s]", filtered, small)
	}
	if skipped != 1 {
		t.Errorf("skipped = %d, want 1", skipped)
	}

	// Zero limit keeps everything.
	filtered, skipped = FilterBySize([]string{small, big}, 0)
	if len(filtered) != 2 || skipped != 0 {
		t.Errorf("FilterBySize(0) = %v skipped %d, want both kept", filtered, skipped)
	}

	// Missing files count as skipped.
	filtered, skipped = FilterBySize([]string{filepath.Join(tmpDir, "gone.csv")}, 1024)
	if len(filtered) != 0 || skipped != 1 {
		t.Errorf("FilterBySize(missing) = %v skipped %d", filtered, skipped)
	}
}

func TestIsWithinRoot(t *testing.T) {
	tests := []struct {
		name string
		path string
		root string
		want bool
	}{
		{"inside", "/data/sets/orders.csv", "/data/sets", true},
		{"is root", "/data/sets", "/data/sets", true},
		{"outside", "/other/orders.csv", "/data/sets", false},
		{"prefix trap", "/data/sets2/orders.csv", "/data/sets", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isWithinRoot(tt.path, tt.root); got != tt.want {
				t.Errorf("isWithinRoot(%q, %q) = %v, want %v", tt.path, tt.root, got, tt.want)
			}
		})
	}
}

func TestFindGitRoot(t *testing.T) {
	tmpDir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(tmpDir, ".git"), 0755); err != nil {
		t.Fatal(err)
	}
	sub := filepath.Join(tmpDir, "data", "sets")
	if err := os.MkdirAll(sub, 0755); err != nil {
		t.Fatal(err)
	}

	if got := findGitRoot(sub); got != tmpDir {
		t.Errorf("findGitRoot(%q) = %q, want %q", sub, got, tmpDir)
	}
}

func TestScanDirWithSymlinks(t *testing.T) {
	tmpDir := t.TempDir()
	outside := t.TempDir()
	createFiles(t, tmpDir, map[string]string{"orders.csv": "a\n1\n"})
	createFiles(t, outside, map[string]string{"secret.csv": "a\n1\n"})

	link := filepath.Join(tmpDir, "escape.csv")
	if err := os.Symlink(filepath.Join(outside, "secret.csv"), link); err != nil {
		t.Skipf("symlinks not supported: %v", err)
	}

	s := NewScanner(config.DefaultConfig())
	files, err := s.ScanDir(tmpDir)
	if err != nil {
		t.Fatalf("ScanDir() error = %v", err)
	}

	for _, f := range files {
		if filepath.Base(f) == "escape.csv" {
			t.Error("ScanDir() should skip symlinks escaping the root")
		}
	}
}

func TestScanDirWithUnresolvableSymlink(t *testing.T) {
	tmpDir := t.TempDir()
	createFiles(t, tmpDir, map[string]string{"orders.csv": "a\n1\n"})

	link := filepath.Join(tmpDir, "dangling.csv")
	if err := os.Symlink(filepath.Join(tmpDir, "missing.csv"), link); err != nil {
		t.Skipf("symlinks not supported: %v", err)
	}

	s := NewScanner(config.DefaultConfig())
	files, err := s.ScanDir(tmpDir)
	if err != nil {
		t.Fatalf("ScanDir() error = %v", err)
	}
	if len(files) != 1 {
		t.Errorf("ScanDir() = %v, want just orders.csv", files)
	}
}

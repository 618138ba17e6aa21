package generate

import (
	"os"
	"path/filepath"
	"testing"
)

func TestNextAvailableFreePath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "script.py")
	if got := NextAvailable(path); got != path {
		t.Errorf("got %q, want %q", got, path)
	}
}

func TestNextAvailableIncrements(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "script.py")

	if err := os.WriteFile(path, []byte("first"), 0644); err != nil {
		t.Fatal(err)
	}

	got := NextAvailable(path)
	want := filepath.Join(dir, "script-1.py")
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}

	if err := os.WriteFile(got, []byte("second"), 0644); err != nil {
		t.Fatal(err)
	}

	if got := NextAvailable(path); got != filepath.Join(dir, "script-2.py") {
		t.Errorf("third request: got %q", got)
	}

	// The first file was never touched.
	data, err := os.ReadFile(path)
	if err != nil || string(data) != "first" {
		t.Errorf("original file changed: %q, %v", data, err)
	}
}

func TestNextAvailableNoExtension(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "runme")
	if err := os.WriteFile(path, nil, 0644); err != nil {
		t.Fatal(err)
	}

	if got := NextAvailable(path); got != filepath.Join(dir, "runme-1") {
		t.Errorf("got %q", got)
	}
}

package scorer

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadWeightsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "weights.yaml")
	content := []byte("smiling: 0.2\nsharpness: 0.5\n")
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatalf("failed to write weights file: %v", err)
	}

	w, err := LoadWeightsFile(path)
	if err != nil {
		t.Fatalf("LoadWeightsFile failed: %v", err)
	}

	if w.Smiling != 0.2 {
		t.Errorf("Smiling = %f; want override 0.2", w.Smiling)
	}
	if w.Sharpness != 0.5 {
		t.Errorf("Sharpness = %f; want override 0.5", w.Sharpness)
	}
	// Fields missing from the file keep the embedded defaults.
	if w.Brightness != 0.05 {
		t.Errorf("Brightness = %f; want default 0.05", w.Brightness)
	}
	if w.EyesOpen != 0.15 {
		t.Errorf("EyesOpen = %f; want default 0.15", w.EyesOpen)
	}
}

func TestLoadWeightsFileMissing(t *testing.T) {
	if _, err := LoadWeightsFile(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("LoadWeightsFile should fail for a missing file")
	}
}

func TestLoadWeightsFileInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.yaml")
	if err := os.WriteFile(path, []byte("{not yaml"), 0o644); err != nil {
		t.Fatalf("failed to write weights file: %v", err)
	}
	if _, err := LoadWeightsFile(path); err == nil {
		t.Error("LoadWeightsFile should fail for unparsable yaml")
	}
}

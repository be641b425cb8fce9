package storage

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func exists(staticDir, name string) bool {
	_, err := os.Stat(filepath.Join(staticDir, UploadsDir, name))
	return err == nil
}

func TestImageStore(t *testing.T) {
	staticDir := t.TempDir()

	store, err := NewImageStore(staticDir)
	if err != nil {
		t.Fatalf("Failed to create ImageStore: %v", err)
	}

	var name string

	t.Run("Save", func(t *testing.T) {
		name, err = store.Save(strings.NewReader("png-bytes"), "Shirt.PNG")
		if err != nil {
			t.Fatalf("Failed to save image: %v", err)
		}
		if filepath.Ext(name) != ".png" {
			t.Errorf("Expected a .png name, got %q", name)
		}
		data, err := os.ReadFile(filepath.Join(staticDir, UploadsDir, name))
		if err != nil {
			t.Fatalf("Expected image under uploads: %v", err)
		}
		if string(data) != "png-bytes" {
			t.Errorf("Unexpected content %q", data)
		}
	})

	t.Run("CheckExists-True", func(t *testing.T) {
		if !exists(staticDir, name) {
			t.Errorf("Expected image %q to exist", name)
		}
	})

	t.Run("UnsupportedType", func(t *testing.T) {
		_, err := store.Save(strings.NewReader("x"), "notes.txt")
		if !errors.Is(err, ErrUnsupportedImage) {
			t.Errorf("Expected ErrUnsupportedImage, got %v", err)
		}
	})

	t.Run("SaveFile", func(t *testing.T) {
		src := filepath.Join(t.TempDir(), "jeans.jpg")
		if err := os.WriteFile(src, []byte("jpg"), 0644); err != nil {
			t.Fatal(err)
		}
		got, err := store.SaveFile(src)
		if err != nil {
			t.Fatalf("Failed to save file: %v", err)
		}
		if got == name || !exists(staticDir, got) {
			t.Errorf("Expected a new stored image, got %q", got)
		}
	})

	t.Run("Remove", func(t *testing.T) {
		if err := store.Remove(name); err != nil {
			t.Fatalf("Failed to remove image: %v", err)
		}
		if exists(staticDir, name) {
			t.Error("Expected image to be gone")
		}
		if err := store.Remove(name); err != nil {
			t.Errorf("Expected removing a missing image to succeed, got %v", err)
		}
	})

	t.Run("PathTraversal", func(t *testing.T) {
		if exists(staticDir, "../../etc/passwd") {
			t.Error("Expected lookups to stay inside the store")
		}
	})
}

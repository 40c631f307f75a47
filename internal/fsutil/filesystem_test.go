package fsutil

import (
	"errors"
	"io/fs"
	"path/filepath"
	"testing"
)

func TestMemoryFileSystem_WriteAndRead(t *testing.T) {
	mfs := NewMemoryFileSystem()

	testData := []byte("hello, world")
	if err := mfs.WriteFile("/test.txt", testData, 0644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	data, err := mfs.ReadFile("/test.txt")
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if string(data) != string(testData) {
		t.Errorf("expected %q, got %q", testData, data)
	}

	info, err := mfs.Stat("/test.txt")
	if err != nil {
		t.Fatalf("Stat failed: %v", err)
	}
	if info.Size() != int64(len(testData)) {
		t.Errorf("Size() = %d, want %d", info.Size(), len(testData))
	}
}

func TestMemoryFileSystem_Missing(t *testing.T) {
	mfs := NewMemoryFileSystem()

	if _, err := mfs.ReadFile("/nope"); !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("ReadFile error = %v, want ErrNotExist", err)
	}
	if _, err := mfs.Stat("/nope"); !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("Stat error = %v, want ErrNotExist", err)
	}
	if err := mfs.Rename("/nope", "/other"); !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("Rename error = %v, want ErrNotExist", err)
	}
}

func TestWriteFileAtomic_Memory(t *testing.T) {
	mfs := NewMemoryFileSystem()

	if err := WriteFileAtomic(mfs, "/out/plot.png", []byte("v1"), 0644); err != nil {
		t.Fatalf("WriteFileAtomic failed: %v", err)
	}
	if err := WriteFileAtomic(mfs, "/out/plot.png", []byte("v2"), 0644); err != nil {
		t.Fatalf("WriteFileAtomic failed: %v", err)
	}

	data, err := mfs.ReadFile("/out/plot.png")
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if string(data) != "v2" {
		t.Errorf("content = %q, want %q", data, "v2")
	}
	if files := mfs.Files(); len(files) != 1 {
		t.Errorf("Files() = %v, want only the target", files)
	}
	if info, err := mfs.Stat("/out"); err != nil || !info.IsDir() {
		t.Errorf("Stat(/out) = %v, %v; want directory", info, err)
	}
}

func TestWriteFileAtomic_RenameFailureCleansUp(t *testing.T) {
	mfs := NewMemoryFileSystem()
	mfs.RenameErr = errors.New("read-only")

	if err := WriteFileAtomic(mfs, "plot.png", []byte("x"), 0644); err == nil {
		t.Fatal("expected error")
	}
	if files := mfs.Files(); len(files) != 0 {
		t.Errorf("temporary file left behind: %v", files)
	}
}

func TestWriteFileAtomic_OS(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "nested", "sweep.html")

	if err := WriteFileAtomic(OSFileSystem{}, target, []byte("<html></html>"), 0644); err != nil {
		t.Fatalf("WriteFileAtomic failed: %v", err)
	}

	data, err := OSFileSystem{}.ReadFile(target)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if string(data) != "<html></html>" {
		t.Errorf("content = %q", data)
	}
	if _, err := (OSFileSystem{}).Stat(target + ".tmp"); !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("temporary file still present: %v", err)
	}
}

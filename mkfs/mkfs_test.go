package mkfs_test

import (
	"path/filepath"
	"testing"

	"github.com/satwik-exe/lfs"
	"github.com/satwik-exe/lfs/mkfs"
)

func TestFormatProducesOpenableImage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fresh.lfs")
	if err := mkfs.Format(path, mkfs.DefaultOptions()); err != nil {
		t.Fatalf("format failed: %s", err)
	}

	st, err := lfs.Open(path)
	if err != nil {
		t.Fatalf("failed to open formatted image: %s", err)
	}
	defer st.Close()

	attr, err := st.GetAttr("/")
	if err != nil {
		t.Fatalf("failed to stat root: %s", err)
	}
	if !attr.Mode.IsDir() {
		t.Errorf("root is not a directory: mode=%s", attr.Mode)
	}

	names, err := st.ReadDir("/")
	if err != nil {
		t.Fatalf("failed to read root: %s", err)
	}
	found := false
	for _, n := range names {
		if n == "hello.txt" {
			found = true
		}
	}
	if !found {
		t.Errorf("default options should seed hello.txt, got entries %v", names)
	}
}

func TestFormatWithoutSeedHello(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.lfs")
	opt := mkfs.DefaultOptions()
	opt.SeedHello = false
	if err := mkfs.Format(path, opt); err != nil {
		t.Fatalf("format failed: %s", err)
	}

	st, err := lfs.Open(path)
	if err != nil {
		t.Fatalf("failed to open formatted image: %s", err)
	}
	defer st.Close()

	names, err := st.ReadDir("/")
	if err != nil {
		t.Fatalf("failed to read root: %s", err)
	}
	for _, n := range names {
		if n != "." && n != ".." {
			t.Errorf("expected an empty root, found entry %q", n)
		}
	}
}

func TestFormatWithCustomBlockCount(t *testing.T) {
	path := filepath.Join(t.TempDir(), "small.lfs")
	opt := mkfs.Options{TotalBlocks: 64, SeedHello: false}
	if err := mkfs.Format(path, opt); err != nil {
		t.Fatalf("format failed: %s", err)
	}

	st, err := lfs.Open(path)
	if err != nil {
		t.Fatalf("failed to open formatted image: %s", err)
	}
	defer st.Close()

	if err := st.Create("/a.txt"); err != nil {
		t.Fatalf("create on a small image failed: %s", err)
	}
}

package lfs_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/satwik-exe/lfs"
	"github.com/satwik-exe/lfs/mkfs"
)

func TestDirEntryNameRoundTrip(t *testing.T) {
	cases := []string{"a", "hello.txt", strings.Repeat("x", lfs.MaxNameLen-1)}
	for _, name := range cases {
		d := lfs.NewDirEntry(7, name)
		if got := d.Name(); got != name {
			t.Errorf("NewDirEntry(%q).Name() = %q", name, got)
		}
	}
}

func TestDirBlockEncodeDecodeRoundTrip(t *testing.T) {
	var ents [lfs.DirEntriesPerBlock]lfs.DirEntry
	ents[0] = lfs.NewDirEntry(0, ".")
	ents[1] = lfs.NewDirEntry(0, "..")
	ents[2] = lfs.NewDirEntry(3, "foo.bin")

	buf := lfs.EncodeDirBlock(ents)
	if len(buf) != lfs.BlockSize {
		t.Fatalf("encoded dir block is %d bytes, want %d", len(buf), lfs.BlockSize)
	}

	got := lfs.DecodeDirBlock(buf)
	for i := 0; i < 3; i++ {
		if got[i].InodeNo != ents[i].InodeNo || got[i].Name() != ents[i].Name() {
			t.Errorf("slot %d round trip mismatch: got {%d %q}, want {%d %q}",
				i, got[i].InodeNo, got[i].Name(), ents[i].InodeNo, ents[i].Name())
		}
	}
}

func TestCreateRejectsOverlongName(t *testing.T) {
	st := openTestState(t, mkfs.Options{TotalBlocks: lfs.TotalBlocks, SeedHello: false})
	name := "/" + strings.Repeat("y", lfs.MaxNameLen)
	if err := st.Create(name); !errors.Is(err, lfs.ErrNameTooLong) {
		t.Errorf("expected ErrNameTooLong for a %d-byte name, got %v", lfs.MaxNameLen, err)
	}
}

func TestRootDirectoryFillsUp(t *testing.T) {
	st := openTestState(t, mkfs.Options{TotalBlocks: lfs.TotalBlocks, SeedHello: false})

	// root directory capacity is DirEntriesPerBlock slots; mkfs stores "."
	// and ".." in the first two, so DirEntriesPerBlock-2 creates fit before
	// addDirent reports ErrNoSpace.
	var lastErr error
	created := 0
	for i := 0; i < lfs.DirEntriesPerBlock+5; i++ {
		name := "/f" + string(rune('A'+i%26)) + string(rune('0'+i/26))
		if err := st.Create(name); err != nil {
			lastErr = err
			break
		}
		created++
	}
	if !errors.Is(lastErr, lfs.ErrNoSpace) {
		t.Errorf("expected ErrNoSpace once the root directory fills, got %v after %d creates", lastErr, created)
	}
}

package lfs_test

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/satwik-exe/lfs"
)

func newBlankImage(t *testing.T, blocks uint32) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "image.lfs")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("failed to create %s: %s", path, err)
	}
	if err := f.Truncate(int64(blocks) * lfs.BlockSize); err != nil {
		t.Fatalf("failed to size %s: %s", path, err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("failed to close %s: %s", path, err)
	}
	return path
}

func TestBlockDeviceRoundTrip(t *testing.T) {
	path := newBlankImage(t, 4)
	dev, err := lfs.OpenBlockDevice(path)
	if err != nil {
		t.Fatalf("failed to open block device: %s", err)
	}
	defer dev.Close()

	want := bytes.Repeat([]byte{0xAB}, lfs.BlockSize)
	if err := dev.WriteBlock(2, want); err != nil {
		t.Fatalf("failed to write block 2: %s", err)
	}

	got := make([]byte, lfs.BlockSize)
	if err := dev.ReadBlock(2, got); err != nil {
		t.Fatalf("failed to read block 2: %s", err)
	}
	if !bytes.Equal(got, want) {
		t.Errorf("block 2 round trip mismatch")
	}

	other := make([]byte, lfs.BlockSize)
	if err := dev.ReadBlock(0, other); err != nil {
		t.Fatalf("failed to read block 0: %s", err)
	}
	if !bytes.Equal(other, make([]byte, lfs.BlockSize)) {
		t.Errorf("block 0 should still be zero, writing block 2 must not spill over")
	}
}

func TestBlockDeviceRejectsShortBuffer(t *testing.T) {
	path := newBlankImage(t, 1)
	dev, err := lfs.OpenBlockDevice(path)
	if err != nil {
		t.Fatalf("failed to open block device: %s", err)
	}
	defer dev.Close()

	if err := dev.ReadBlock(0, make([]byte, 10)); err == nil {
		t.Errorf("expected an error reading into an undersized buffer")
	}
	if err := dev.WriteBlock(0, make([]byte, 10)); err == nil {
		t.Errorf("expected an error writing from an undersized buffer")
	}
}

func TestBlockDeviceCloseIsIdempotent(t *testing.T) {
	path := newBlankImage(t, 1)
	dev, err := lfs.OpenBlockDevice(path)
	if err != nil {
		t.Fatalf("failed to open block device: %s", err)
	}
	if err := dev.Close(); err != nil {
		t.Errorf("first close failed: %s", err)
	}
	if err := dev.Close(); err != nil {
		t.Errorf("second close should be a no-op, got: %s", err)
	}
}

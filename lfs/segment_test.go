package lfs_test

import (
	"testing"

	"github.com/satwik-exe/lfs"
	"github.com/satwik-exe/lfs/mkfs"
)

func TestSummaryEncodeDecodeRoundTrip(t *testing.T) {
	var sum [lfs.SummaryEntriesPerBlock]lfs.SummaryEntry
	sum[1] = lfs.SummaryEntry{InodeNo: 5, BlockIdx: 0}
	sum[17] = lfs.SummaryEntry{InodeNo: 9, BlockIdx: 3}

	buf := lfs.EncodeSummary(sum)
	if len(buf) != lfs.BlockSize {
		t.Fatalf("encoded summary is %d bytes, want %d", len(buf), lfs.BlockSize)
	}

	got := lfs.DecodeSummary(buf)
	if got != sum {
		t.Errorf("summary round trip mismatch: got %+v, want %+v", got, sum)
	}
}

// TestWritesSpanSegmentBoundaryCleanly exercises the boundary-skip logic in
// the log writer by forcing enough rewrites that the tail crosses at least
// one BlocksPerSegment boundary, while staying well below GCThreshold so
// this test is about segment framing, not garbage collection.
func TestWritesSpanSegmentBoundaryCleanly(t *testing.T) {
	st := openTestState(t, mkfs.Options{TotalBlocks: lfs.TotalBlocks, SeedHello: false})

	if err := st.Create("/x.bin"); err != nil {
		t.Fatalf("create failed: %s", err)
	}

	rounds := int(lfs.BlocksPerSegment)*2 + 5
	var last string
	for i := 0; i < rounds; i++ {
		last = string(rune('a' + i%26))
		if _, err := st.Write("/x.bin", 0, []byte(last)); err != nil {
			t.Fatalf("write %d failed: %s", i, err)
		}
	}

	got, err := st.Read("/x.bin", 0, len(last))
	if err != nil {
		t.Fatalf("read failed: %s", err)
	}
	if string(got) != last {
		t.Errorf("got %q, want %q", got, last)
	}
}

package lfs

// shouldRunGC implements the should-run predicate: trigger with
// GCThreshold blocks of headroom still to spare, well before the log
// actually fills.
func (s *State) shouldRunGC() bool {
	return s.sb.TotalBlocks-s.sb.LogTail < GCThreshold
}

// liveSet computes, for every block in [LogStart, LogTail), whether it is
// still referenced by the inode map or some live inode's Direct[]. This is
// the authoritative liveness check: it is derived from the inode map, never
// from segment summaries, so it is robust against stale summary data.
//
// Every segment's summary block (segBase of each segment) is marked live
// unconditionally: it is never pointed to by the inode map or any Direct[],
// but append still depends on it holding a real summary the next time it
// writes into that segment. Without this, compaction would treat summary
// blocks as ordinary dead space and relocate live data on top of them.
func (s *State) liveSet() (map[uint32]bool, error) {
	live := make(map[uint32]bool)
	for b := s.sb.LogStart; b < s.sb.LogTail; b += BlocksPerSegment {
		live[b] = true
	}
	for i := uint32(0); i < InodeMapSize; i++ {
		blk := s.imap[i]
		if blk == 0 {
			continue
		}
		live[blk] = true
		ino, err := s.inodeRead(i)
		if err != nil {
			return nil, err
		}
		for _, d := range ino.Direct {
			if d != 0 {
				live[d] = true
			}
		}
	}
	return live, nil
}

// runGC performs a two-pointer forward compaction of [LogStart, LogTail),
// relocating every live block it finds past a dead one, fixing up every
// reference to each relocated block, and finally rewinding LogTail. It
// checkpoints on success. Any I/O error is returned to the caller without
// having removed a single block: a partial GC still leaves a correct,
// possibly fragmented, filesystem.
func (s *State) runGC() error {
	live, err := s.liveSet()
	if err != nil {
		return err
	}

	deadCount := 0
	for b := s.sb.LogStart; b < s.sb.LogTail; b++ {
		if !live[b] {
			deadCount++
		}
	}
	if deadCount == 0 {
		debugf("gc: nothing to reclaim")
		return nil
	}
	debugf("gc: starting, %d dead blocks in [%d,%d)", deadCount, s.sb.LogStart, s.sb.LogTail)

	dst := s.sb.LogStart
	src := s.sb.LogTail - 1
	for dst < src {
		for dst < src && live[dst] {
			dst++
		}
		for src > dst && !live[src] {
			src--
		}
		if dst >= src {
			break
		}

		buf := make([]byte, BlockSize)
		if err := s.dev.ReadBlock(src, buf); err != nil {
			return err
		}
		if err := s.dev.WriteBlock(dst, buf); err != nil {
			return err
		}
		if err := s.dev.WriteBlock(src, make([]byte, BlockSize)); err != nil {
			return err
		}

		if err := s.updateReferences(src, dst); err != nil {
			return err
		}

		live[dst] = true
		live[src] = false

		dst++
		src--
	}

	if err := s.rewindTail(); err != nil {
		return err
	}
	if err := s.checkpoint(); err != nil {
		return err
	}
	debugf("gc: done, tail now %d", s.sb.LogTail)
	return nil
}

// updateReferences patches every pointer to old so it points to new: first
// the inode map (old was an inode block, so the map entry itself is the only
// pointer to fix), otherwise every live inode's Direct[] (old was a data
// block). In the latter case the owning inode's on-disk block is overwritten
// in place with the patched Direct[] rather than re-appended: an append
// would land at the current (still-high) LogTail, pulling that block back
// into the live set above the compaction window and defeating rewindTail —
// an in-place rewrite keeps the inode at its current block number, which GC
// has already decided to keep or relocate on its own merits.
func (s *State) updateReferences(old, new uint32) error {
	for i := uint32(0); i < InodeMapSize; i++ {
		if s.imap[i] == old {
			s.imap[i] = new
			return nil
		}
	}

	for i := uint32(0); i < InodeMapSize; i++ {
		blk := s.imap[i]
		if blk == 0 {
			continue
		}
		ino, err := s.inodeRead(i)
		if err != nil {
			return err
		}
		patched := false
		for j, d := range ino.Direct {
			if d == old {
				ino.Direct[j] = new
				patched = true
			}
		}
		if patched {
			return s.dev.WriteBlock(blk, ino.Encode())
		}
	}
	return nil
}

// rewindTail recomputes LogTail as one past the highest block referenced by
// the inode map or any live inode's Direct[], rounds up to the next segment
// boundary relative to LogStart (segments are carved out starting there, not
// at block 0), and clamps to the old tail (never extends it).
func (s *State) rewindTail() error {
	oldTail := s.sb.LogTail
	highest := s.sb.LogStart

	for i := uint32(0); i < InodeMapSize; i++ {
		blk := s.imap[i]
		if blk == 0 {
			continue
		}
		if blk+1 > highest {
			highest = blk + 1
		}
		ino, err := s.inodeRead(i)
		if err != nil {
			return err
		}
		for _, d := range ino.Direct {
			if d != 0 && d+1 > highest {
				highest = d + 1
			}
		}
	}

	rel := highest - LogStart
	newTail := LogStart + ((rel+BlocksPerSegment-1)/BlocksPerSegment)*BlocksPerSegment
	if newTail > oldTail {
		newTail = oldTail
	}
	if newTail < s.sb.LogStart {
		newTail = s.sb.LogStart
	}
	s.sb.LogTail = newTail
	return nil
}

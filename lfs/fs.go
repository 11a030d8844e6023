package lfs

import (
	"fmt"
	"io/fs"
)

// State is the single process-wide mutable state object: the block device
// handle, the in-memory superblock, and the in-memory inode map. It is
// created by the mount-time handler and destroyed by the unmount-time
// handler (Close), which performs a final checkpoint. Nothing else mutates
// it — the design assumes a single-threaded caller (see the scheduling
// model in the design notes).
type State struct {
	dev  *BlockDevice
	sb   Superblock
	imap InodeMap
}

// Open mounts the image at path: it opens the block device, reads the
// superblock (failing with ErrBadMagic if it doesn't match), and reads the
// inode map.
func Open(path string) (*State, error) {
	dev, err := OpenBlockDevice(path)
	if err != nil {
		return nil, err
	}

	buf := make([]byte, BlockSize)
	if err := dev.ReadBlock(0, buf); err != nil {
		dev.Close()
		return nil, err
	}
	sb, err := DecodeSuperblock(buf)
	if err != nil {
		dev.Close()
		return nil, err
	}

	if err := dev.ReadBlock(InodeMapBlockNum, buf); err != nil {
		dev.Close()
		return nil, err
	}
	imap := DecodeInodeMap(buf)

	return &State{dev: dev, sb: *sb, imap: imap}, nil
}

// Close performs a final checkpoint and releases the block device.
func (s *State) Close() error {
	if err := s.checkpoint(); err != nil {
		return err
	}
	return s.dev.Close()
}

// CloseReadOnly releases the block device without checkpointing. Use this
// instead of Close for a State that only ever called read-only methods
// (GetAttr, ReadDir, Read, Check): Close's checkpoint rewrites blocks 0 and
// 1 unconditionally, which a pure inspection tool must not do.
func (s *State) CloseReadOnly() error {
	return s.dev.Close()
}

// CheckViolation describes one invariant failure found by Check.
type CheckViolation struct {
	InodeNo uint32
	Detail  string
}

// Check walks the inode map and every live inode's Direct[], verifying
// invariants 1-2: every inode_map[i] != 0 points into [LogStart, LogTail)
// at a block whose stored InodeNo equals i, and every live inode's non-zero
// Direct[j] references a block in that same range. It is read-only and
// reports every violation it finds rather than stopping at the first.
func (s *State) Check() ([]CheckViolation, error) {
	var violations []CheckViolation
	for i := uint32(0); i < InodeMapSize; i++ {
		blk := s.imap[i]
		if blk == 0 {
			continue
		}
		if blk < s.sb.LogStart || blk >= s.sb.LogTail {
			violations = append(violations, CheckViolation{
				InodeNo: i,
				Detail:  fmt.Sprintf("inode map entry points to block %d outside [%d,%d)", blk, s.sb.LogStart, s.sb.LogTail),
			})
			continue
		}

		ino, err := s.inodeRead(i)
		if err != nil {
			return nil, err
		}
		if ino.InodeNo != i {
			violations = append(violations, CheckViolation{
				InodeNo: i,
				Detail:  fmt.Sprintf("block %d holds inode_no %d, inode map expects %d", blk, ino.InodeNo, i),
			})
		}
		for j, d := range ino.Direct {
			if d == 0 {
				continue
			}
			if d < s.sb.LogStart || d >= s.sb.LogTail {
				violations = append(violations, CheckViolation{
					InodeNo: i,
					Detail:  fmt.Sprintf("direct[%d] references block %d outside [%d,%d)", j, d, s.sb.LogStart, s.sb.LogTail),
				})
			}
		}
	}
	return violations, nil
}

// Attr is the subset of file metadata getattr reports.
type Attr struct {
	InodeNo uint32
	Mode    fs.FileMode
	NLink   uint32
	Size    uint64
}

// maybeRunGC runs the garbage collector if the should-run predicate holds.
// Every mutating operation calls this before its first append. The returned
// bool reports whether GC actually ran, so callers holding an in-memory
// inode they haven't persisted yet know whether it may have been relocated
// out from under them.
func (s *State) maybeRunGC() (bool, error) {
	if s.shouldRunGC() {
		debugf("gc: threshold reached at tail=%d/%d", s.sb.LogTail, s.sb.TotalBlocks)
		return true, s.runGC()
	}
	return false, nil
}

// GetAttr resolves path and reports its attributes.
func (s *State) GetAttr(path string) (*Attr, error) {
	ino, err := s.resolveInode(path)
	if err != nil {
		return nil, err
	}
	return &Attr{
		InodeNo: ino.InodeNo,
		Mode:    ino.Mode(),
		NLink:   ino.NLink(),
		Size:    uint64(ino.Size),
	}, nil
}

func (s *State) resolveInode(path string) (*Inode, error) {
	n, err := s.resolve(path)
	if err != nil {
		return nil, err
	}
	return s.inodeRead(n)
}

// ReadDir resolves path, requires it be a directory, and lists it: always
// "." and "..", then every occupied, non-dot entry.
func (s *State) ReadDir(path string) ([]string, error) {
	ino, err := s.resolveInode(path)
	if err != nil {
		return nil, err
	}
	if ino.Type != DirType {
		return nil, ErrNotDir
	}

	names := []string{".", ".."}
	ents, err := s.readDirBlock(ino)
	if err != nil {
		return nil, err
	}
	used := int(ino.Size) / DirEntrySize
	for i := 0; i < used && i < DirEntriesPerBlock; i++ {
		if ents[i].InodeNo == 0 {
			continue
		}
		n := ents[i].Name()
		if n == "." || n == ".." {
			continue
		}
		names = append(names, n)
	}
	return names, nil
}

// Read resolves path, requires it be a regular file, and delivers up to
// size bytes starting at offset, clamped to the file's size. Holes (a zero
// Direct[] entry within the covered range) read back as zeros.
func (s *State) Read(path string, offset int64, size int) ([]byte, error) {
	ino, err := s.resolveInode(path)
	if err != nil {
		return nil, err
	}
	if ino.Type != FileType {
		return nil, ErrIsDir
	}
	if offset < 0 {
		return nil, ErrInvalidPath
	}
	if offset >= int64(ino.Size) {
		return []byte{}, nil
	}

	remaining := int64(ino.Size) - offset
	if int64(size) > remaining {
		size = int(remaining)
	}
	if size <= 0 {
		return []byte{}, nil
	}

	out := make([]byte, size)
	firstBlk := int(offset / BlockSize)
	lastBlk := int((offset + int64(size) - 1) / BlockSize)

	blockBuf := make([]byte, BlockSize)
	for blk := firstBlk; blk <= lastBlk; blk++ {
		blockStart := int64(blk) * BlockSize
		blockEnd := blockStart + BlockSize

		copyStart := blockStart
		if copyStart < offset {
			copyStart = offset
		}
		copyEnd := blockEnd
		if copyEnd > offset+int64(size) {
			copyEnd = offset + int64(size)
		}

		ptr := ino.Direct[blk]
		if ptr == 0 {
			// hole: leave the corresponding output range zeroed
			continue
		}
		if err := s.dev.ReadBlock(ptr, blockBuf); err != nil {
			return nil, err
		}
		copy(out[copyStart-offset:copyEnd-offset], blockBuf[copyStart-blockStart:copyEnd-blockStart])
	}
	return out, nil
}

// Create validates the single-level name, allocates a zero-sized inode
// with no data blocks (the first Write allocates lazily), links it into
// the root directory, and checkpoints.
func (s *State) Create(path string) error {
	if path == "/" || !isSingleLevel(path) {
		return ErrInvalidPath
	}
	name := path[1:]
	if len(name) == 0 || len(name) >= MaxNameLen {
		return ErrNameTooLong
	}
	if _, err := s.resolve(path); err == nil {
		return ErrAlreadyExists
	}

	if _, err := s.maybeRunGC(); err != nil {
		return err
	}

	ino, err := s.inodeAlloc()
	if err != nil {
		return err
	}

	newIno := &Inode{InodeNo: ino, Type: FileType, Size: 0, NLinks: 1}
	if err := s.inodeWrite(newIno); err != nil {
		return err
	}

	if err := s.addDirent(ino, name); err != nil {
		return err
	}

	return s.checkpoint()
}

// Write resolves path, requires it be a regular file, rejects offsets at or
// past the direct-pointer limit, and appends a new version of every block
// the write spans. It re-checks GC before each block; the working inode
// carries forward the Direct[] entries set by earlier iterations in this
// call. Before a mid-call GC it is persisted, so GC counts those blocks as
// live, and it is reloaded from disk if GC actually ran, since GC is the
// only thing that can move the inode or an already-written block out from
// under the in-memory copy.
func (s *State) Write(path string, offset int64, buf []byte) (int, error) {
	n, err := s.resolve(path)
	if err != nil {
		return 0, err
	}
	ino, err := s.inodeRead(n)
	if err != nil {
		return 0, err
	}
	if ino.Type != FileType {
		return 0, ErrIsDir
	}

	maxOffset := int64(MaxDirectPtrs) * BlockSize
	if offset >= maxOffset {
		return 0, ErrFileTooBig
	}
	size := len(buf)
	if offset+int64(size) > maxOffset {
		size = int(maxOffset - offset)
	}
	buf = buf[:size]

	if size == 0 {
		if _, err := s.maybeRunGC(); err != nil {
			return 0, err
		}
		if ino, err = s.inodeRead(n); err != nil {
			return 0, err
		}
		if err := s.inodeWrite(ino); err != nil {
			return 0, err
		}
		return 0, s.checkpoint()
	}

	firstBlk := int(offset / BlockSize)
	lastBlk := int((offset + int64(size) - 1) / BlockSize)

	for blk := firstBlk; blk <= lastBlk; blk++ {
		blockStart := int64(blk) * BlockSize

		overlayStart := blockStart
		if overlayStart < offset {
			overlayStart = offset
		}
		overlayEnd := blockStart + BlockSize
		if overlayEnd > offset+int64(size) {
			overlayEnd = offset + int64(size)
		}

		blockBuf := make([]byte, BlockSize)
		if ptr := ino.Direct[blk]; ptr != 0 {
			if err := s.dev.ReadBlock(ptr, blockBuf); err != nil {
				return 0, err
			}
		}
		copy(blockBuf[overlayStart-blockStart:overlayEnd-blockStart], buf[overlayStart-offset:overlayEnd-offset])

		if blk > firstBlk && s.shouldRunGC() {
			// GC finds live blocks through the inode map only.
			if err := s.inodeWrite(ino); err != nil {
				return 0, err
			}
		}
		ranGC, err := s.maybeRunGC()
		if err != nil {
			return 0, err
		}
		if ranGC {
			// GC may have relocated the inode and every block this call has
			// already written (persisted just above); reload the inode.
			fresh, err := s.inodeRead(n)
			if err != nil {
				return 0, err
			}
			ino = fresh
			if ptr := ino.Direct[blk]; ptr != 0 {
				if err := s.dev.ReadBlock(ptr, blockBuf); err != nil {
					return 0, err
				}
				copy(blockBuf[overlayStart-blockStart:overlayEnd-blockStart], buf[overlayStart-offset:overlayEnd-offset])
			}
		}

		newBlk, err := s.append(blockBuf, n, uint32(blk))
		if err != nil {
			return 0, err
		}
		ino.Direct[blk] = newBlk
	}

	if offset+int64(size) > int64(ino.Size) {
		ino.Size = uint32(offset + int64(size))
	}

	if err := s.inodeWrite(ino); err != nil {
		return 0, err
	}
	if err := s.checkpoint(); err != nil {
		return 0, err
	}
	return size, nil
}

// Truncate supports only truncation to zero: it clears Size and every
// Direct[] entry. The old data blocks become dead and are reclaimed by the
// next GC.
func (s *State) Truncate(path string, size int64) error {
	if size != 0 {
		return ErrNotPermitted
	}
	n, err := s.resolve(path)
	if err != nil {
		return err
	}
	ino, err := s.inodeRead(n)
	if err != nil {
		return err
	}
	if ino.Type != FileType {
		return ErrIsDir
	}

	ino.Size = 0
	for i := range ino.Direct {
		ino.Direct[i] = 0
	}

	if _, err := s.maybeRunGC(); err != nil {
		return err
	}
	if err := s.inodeWrite(ino); err != nil {
		return err
	}
	return s.checkpoint()
}

func isSingleLevel(path string) bool {
	if len(path) == 0 || path[0] != '/' {
		return false
	}
	count := 0
	for i := 0; i < len(path); i++ {
		if path[i] == '/' {
			count++
		}
	}
	return count == 1
}

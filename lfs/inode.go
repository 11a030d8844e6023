package lfs

// InodeType distinguishes a regular file from a directory; LFS has no
// other inode kinds (Non-goals exclude links, devices, etc.).
type InodeType uint32

const (
	FileType InodeType = 1
	DirType  InodeType = 2
)

// Inode is stored inside a single log block; it never shares a block with
// another inode.
type Inode struct {
	InodeNo uint32
	Type    InodeType
	Size    uint32
	NLinks  uint32
	Direct  [MaxDirectPtrs]uint32
}

// DecodeInode parses a BlockSize-byte buffer into an Inode.
func DecodeInode(buf []byte) *Inode {
	r := newFixedReader(buf)
	ino := &Inode{}
	ino.InodeNo = r.u32()
	ino.Type = InodeType(r.u32())
	ino.Size = r.u32()
	ino.NLinks = r.u32()
	for i := range ino.Direct {
		ino.Direct[i] = r.u32()
	}
	return ino
}

// Encode serializes the inode into a zero-padded BlockSize-byte buffer.
func (ino *Inode) Encode() []byte {
	buf := make([]byte, BlockSize)
	w := newFixedWriter(buf)
	w.u32(ino.InodeNo)
	w.u32(uint32(ino.Type))
	w.u32(ino.Size)
	w.u32(ino.NLinks)
	for _, d := range ino.Direct {
		w.u32(d)
	}
	return buf
}

// inodeRead reads inode ino via the inode map, per the inode layer design.
func (s *State) inodeRead(ino uint32) (*Inode, error) {
	if ino >= InodeMapSize {
		return nil, ErrOutOfRange
	}
	blk := s.imap[ino]
	if blk == 0 {
		return nil, ErrNotAllocated
	}
	buf := make([]byte, BlockSize)
	if err := s.dev.ReadBlock(blk, buf); err != nil {
		return nil, err
	}
	return DecodeInode(buf), nil
}

// inodeWrite appends a new version of inode via the log writer and updates
// the inode map. It does not checkpoint; callers batch checkpoints at the
// end of an operation.
func (s *State) inodeWrite(ino *Inode) error {
	blk, err := s.append(ino.Encode(), ino.InodeNo, 0)
	if err != nil {
		return err
	}
	s.imap[ino.InodeNo] = blk
	return nil
}

// inodeAlloc returns the lowest unallocated inode number >= 1. It does not
// reserve the slot: the caller must inodeWrite before any other allocation.
func (s *State) inodeAlloc() (uint32, error) {
	for i := uint32(1); i < InodeMapSize; i++ {
		if s.imap[i] == 0 {
			return i, nil
		}
	}
	return 0, ErrMapFull
}

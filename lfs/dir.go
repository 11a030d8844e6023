package lfs

import (
	"bytes"
	"strings"
)

// DirEntry is one slot of a directory's data block: an inode number (0 =
// free slot) and a fixed-width, NUL-terminated name.
type DirEntry struct {
	InodeNo uint32
	nameBuf [MaxNameLen]byte
}

// DirEntrySize is sizeof(lfs_dirent): a uint32 plus the name buffer.
const DirEntrySize = 4 + MaxNameLen // 32 bytes

// DirEntriesPerBlock is how many DirEntry slots fit in one data block.
const DirEntriesPerBlock = BlockSize / DirEntrySize

// Name returns the entry's name with its NUL terminator stripped.
func (d DirEntry) Name() string {
	n := bytes.IndexByte(d.nameBuf[:], 0)
	if n < 0 {
		n = len(d.nameBuf)
	}
	return string(d.nameBuf[:n])
}

// NewDirEntry builds a DirEntry for inodeNo/name. The caller is responsible
// for enforcing the MaxNameLen limit.
func NewDirEntry(inodeNo uint32, name string) DirEntry {
	var d DirEntry
	d.InodeNo = inodeNo
	copy(d.nameBuf[:], name)
	return d
}

// DecodeDirBlock parses a directory data block into its DirEntry slots.
func DecodeDirBlock(buf []byte) [DirEntriesPerBlock]DirEntry {
	var out [DirEntriesPerBlock]DirEntry
	r := newFixedReader(buf)
	for i := range out {
		out[i].InodeNo = r.u32()
		copy(out[i].nameBuf[:], r.read(MaxNameLen))
	}
	return out
}

// EncodeDirBlock serializes DirEntry slots into a zero-padded data block.
func EncodeDirBlock(ents [DirEntriesPerBlock]DirEntry) []byte {
	buf := make([]byte, BlockSize)
	w := newFixedWriter(buf)
	for _, d := range ents {
		w.u32(d.InodeNo)
		w.bytes(d.nameBuf[:])
	}
	return buf
}

// resolve walks the single-level path contract: "/" is the root; any other
// path must start with '/', contain exactly one '/', and carry a name of
// length in [1, MaxNameLen).
func (s *State) resolve(path string) (uint32, error) {
	if path == "/" {
		return 0, nil
	}
	if !strings.HasPrefix(path, "/") || strings.Count(path, "/") != 1 {
		return 0, ErrInvalidPath
	}
	name := path[1:]
	if len(name) == 0 || len(name) >= MaxNameLen {
		return 0, ErrInvalidPath
	}

	root, err := s.inodeRead(0)
	if err != nil {
		return 0, err
	}
	ents, err := s.readDirBlock(root)
	if err != nil {
		return 0, err
	}
	used := int(root.Size) / DirEntrySize
	for i := 0; i < used && i < DirEntriesPerBlock; i++ {
		if ents[i].InodeNo != 0 && ents[i].Name() == name {
			return ents[i].InodeNo, nil
		}
	}
	return 0, ErrNotFound
}

// readDirBlock reads a directory inode's single data block, returning an
// all-zero block if it has none allocated yet.
func (s *State) readDirBlock(dirIno *Inode) ([DirEntriesPerBlock]DirEntry, error) {
	var ents [DirEntriesPerBlock]DirEntry
	blk := dirIno.Direct[0]
	if blk == 0 {
		return ents, nil
	}
	buf := make([]byte, BlockSize)
	if err := s.dev.ReadBlock(blk, buf); err != nil {
		return ents, err
	}
	return DecodeDirBlock(buf), nil
}

// addDirent appends a new (inodeNo, name) entry to the root directory,
// appending the updated data block and the updated root inode through the
// log writer. It does not checkpoint.
func (s *State) addDirent(inodeNo uint32, name string) error {
	if len(name) == 0 || len(name) >= MaxNameLen {
		return ErrNameTooLong
	}

	root, err := s.inodeRead(0)
	if err != nil {
		return err
	}

	slot := int(root.Size) / DirEntrySize
	if (slot+1)*DirEntrySize > BlockSize {
		return ErrNoSpace
	}

	ents, err := s.readDirBlock(root)
	if err != nil {
		return err
	}
	ents[slot] = NewDirEntry(inodeNo, name)

	blk, err := s.append(EncodeDirBlock(ents), 0, 0)
	if err != nil {
		return err
	}
	root.Direct[0] = blk
	root.Size += DirEntrySize

	return s.inodeWrite(root)
}

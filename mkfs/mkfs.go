// Package mkfs builds a fresh LFS image: the formatter contract named but
// left external by the core specification. It lays out the superblock, the
// inode map, segment 0's summary, the root inode and its directory block,
// and optionally a small seeded demo file, then leaves every remaining log
// block zeroed.
package mkfs

import (
	"os"

	fallocate "github.com/detailyang/go-fallocate"
	"github.com/google/uuid"

	"github.com/satwik-exe/lfs"
)

// Options configures Format. TotalBlocks defaults to lfs.TotalBlocks; set it
// explicitly to build a differently-sized image (the reference
// configuration is 1024 blocks / 4 MiB).
type Options struct {
	TotalBlocks uint32
	SeedHello   bool
}

// DefaultOptions is the reference configuration used by the mklfs CLI when
// no flags override it.
func DefaultOptions() Options {
	return Options{TotalBlocks: lfs.TotalBlocks, SeedHello: true}
}

const helloContents = "Hello from LFS!\n"

// Layout of the very first segment (segment 0, blocks [LogStart,
// LogStart+BlocksPerSegment)) as mkfs lays it out. Block LogStart is the
// segment's summary; usable blocks start at LogStart+1, matching §6's
// "block 11 is the first available data block" for the reference
// LogStart=10.
const (
	summaryBlockOffset  = 0
	rootDirBlockOffset  = 1
	rootInoBlockOffset  = 2
	helloDataOffset     = 3
	helloInoBlockOffset = 4
)

// Format creates path as a new image of exactly BlockSize*TotalBlocks
// bytes and writes the fixed bootstrap layout described in the disk image
// layout contract: superblock at block 0, inode map at block 1, blocks 2-9
// reserved and zero, the log starting at block LogStart.
func Format(path string, opt Options) error {
	if opt.TotalBlocks == 0 {
		opt.TotalBlocks = lfs.TotalBlocks
	}

	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return err
	}
	defer f.Close()

	total := int64(opt.TotalBlocks) * lfs.BlockSize
	if err := fallocate.Fallocate(f, 0, total); err != nil {
		// fallocate is an optimization (pre-sizing); some filesystems
		// (tmpfs, some container overlays) don't support it. Fall back
		// to the portable Truncate, the way jacobsa-fuse's own loopback
		// image tooling does when fallocate is unavailable.
		if err := f.Truncate(total); err != nil {
			return err
		}
	}

	dev, err := lfs.OpenBlockDevice(path)
	if err != nil {
		return err
	}
	defer dev.Close()

	b := &builder{dev: dev}

	var summary [lfs.SummaryEntriesPerBlock]lfs.SummaryEntry

	rootDirBlock := lfs.LogStart + rootDirBlockOffset
	rootInoBlock := lfs.LogStart + rootInoBlockOffset

	var dirEnts [lfs.DirEntriesPerBlock]lfs.DirEntry
	dirEnts[0] = lfs.NewDirEntry(0, ".")
	dirEnts[1] = lfs.NewDirEntry(0, "..")
	rootSize := uint32(2 * lfs.DirEntrySize)

	var imap lfs.InodeMap
	tail := lfs.LogStart + helloDataOffset // may grow below if seeding hello

	if opt.SeedHello {
		helloDataBlock := lfs.LogStart + helloDataOffset
		helloInoBlock := lfs.LogStart + helloInoBlockOffset
		tail = lfs.LogStart + helloInoBlockOffset + 1

		if err := b.writeData(helloDataBlock, []byte(helloContents)); err != nil {
			return err
		}
		summary[helloDataOffset] = lfs.SummaryEntry{InodeNo: 1, BlockIdx: 0}

		helloIno := &lfs.Inode{InodeNo: 1, Type: lfs.FileType, NLinks: 1, Size: uint32(len(helloContents))}
		helloIno.Direct[0] = helloDataBlock
		if err := b.writeInode(helloInoBlock, helloIno); err != nil {
			return err
		}
		summary[helloInoBlockOffset] = lfs.SummaryEntry{InodeNo: 1, BlockIdx: 0}

		dirEnts[2] = lfs.NewDirEntry(1, "hello.txt")
		rootSize = uint32(3 * lfs.DirEntrySize)
		imap[1] = helloInoBlock
	}

	if err := b.writeDirBlock(rootDirBlock, dirEnts); err != nil {
		return err
	}
	summary[rootDirBlockOffset] = lfs.SummaryEntry{InodeNo: 0, BlockIdx: 0}

	rootIno := &lfs.Inode{InodeNo: 0, Type: lfs.DirType, NLinks: 1, Size: rootSize}
	rootIno.Direct[0] = rootDirBlock
	if err := b.writeInode(rootInoBlock, rootIno); err != nil {
		return err
	}
	summary[rootInoBlockOffset] = lfs.SummaryEntry{InodeNo: 0, BlockIdx: 0}
	imap[0] = rootInoBlock

	if err := dev.WriteBlock(lfs.LogStart, lfs.EncodeSummary(summary)); err != nil {
		return err
	}

	sb := &lfs.Superblock{
		Magic:         lfs.SuperblockMagic,
		BlockSize:     lfs.BlockSize,
		TotalBlocks:   opt.TotalBlocks,
		InodeMapBlock: lfs.InodeMapBlockNum,
		LogStart:      lfs.LogStart,
		LogTail:       tail,
	}
	if id, err := uuid.NewRandom(); err == nil {
		copy(sb.VolumeID[:], id[:])
	}

	if err := dev.WriteBlock(lfs.InodeMapBlockNum, imap.Encode()); err != nil {
		return err
	}
	return dev.WriteBlock(0, sb.Encode())
}

// builder is a thin convenience wrapper for writing pre-encoded structures
// to fixed block positions; it holds no state beyond the device handle.
type builder struct {
	dev *lfs.BlockDevice
}

func (b *builder) writeInode(blk uint32, ino *lfs.Inode) error {
	return b.dev.WriteBlock(blk, ino.Encode())
}

func (b *builder) writeData(blk uint32, data []byte) error {
	buf := make([]byte, lfs.BlockSize)
	copy(buf, data)
	return b.dev.WriteBlock(blk, buf)
}

func (b *builder) writeDirBlock(blk uint32, ents [lfs.DirEntriesPerBlock]lfs.DirEntry) error {
	return b.dev.WriteBlock(blk, lfs.EncodeDirBlock(ents))
}

// Package lfs implements a user-space log-structured filesystem: a fixed
// size disk image treated as an append-only log of 4 KiB blocks, indexed by
// a persistent inode map and reclaimed by a segment-compacting garbage
// collector.
//
// The package exposes no path-walking convenience beyond a single directory
// level (see Non-goals in the design notes); it is meant to sit behind a
// kernel filesystem-in-userspace bridge such as the one in ./fuselfs.
package lfs

import "log"

// Disk geometry. These mirror the reference configuration; an image built
// with a different TotalBlocks still obeys every other constant, since only
// the superblock's own TotalBlocks field is ever compared against log_tail.
const (
	BlockSize        = 4096
	TotalBlocks      = 1024
	InodeMapSize     = 256
	MaxDirectPtrs    = 10
	MaxNameLen       = 28
	BlocksPerSegment = 32
	GCThreshold      = 700

	InodeMapBlockNum = 1
	LogStart         = 10

	SuperblockMagic = 0x4C465331
)

// Debug toggles verbose operational logging (append/checkpoint/GC
// trigger-and-outcome). Off by default; flip it the way a caller would set
// any other package-level debug switch before mounting.
var Debug = false

func debugf(format string, args ...any) {
	if Debug {
		log.Printf("lfs: "+format, args...)
	}
}

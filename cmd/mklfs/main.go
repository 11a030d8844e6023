// Command mklfs formats a new LFS image.
package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/satwik-exe/lfs"
	"github.com/satwik-exe/lfs/mkfs"
)

const usage = `mklfs - format a new LFS image

Usage:
  mklfs [-blocks N] [-no-seed-hello] <image-path>

Examples:
  mklfs disk.img                   Format a 4 MiB image with the demo hello.txt
  mklfs -blocks 2048 disk.img      Format an 8 MiB image
  mklfs -no-seed-hello disk.img    Format an empty image
`

func main() {
	opt := mkfs.DefaultOptions()
	var path string

	args := os.Args[1:]
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "-blocks":
			i++
			if i >= len(args) {
				fail("missing value for -blocks")
			}
			n, err := strconv.ParseUint(args[i], 10, 32)
			if err != nil {
				fail(fmt.Sprintf("invalid -blocks value: %s", args[i]))
			}
			opt.TotalBlocks = uint32(n)
		case "-no-seed-hello":
			opt.SeedHello = false
		case "-h", "-help", "--help":
			fmt.Print(usage)
			return
		default:
			if path != "" {
				fail("unexpected argument: " + args[i])
			}
			path = args[i]
		}
	}

	if path == "" {
		fail("missing image path")
	}

	if err := mkfs.Format(path, opt); err != nil {
		fmt.Fprintf(os.Stderr, "mklfs: %s\n", err)
		os.Exit(1)
	}
	fmt.Printf("formatted %s: %d blocks (%d bytes)\n", path, opt.TotalBlocks, uint64(opt.TotalBlocks)*lfs.BlockSize)
}

func fail(msg string) {
	fmt.Fprintf(os.Stderr, "mklfs: %s\n", msg)
	fmt.Print(usage)
	os.Exit(1)
}

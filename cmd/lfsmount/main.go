//go:build fuse

// Command lfsmount mounts an LFS image at a directory using FUSE.
package main

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/hanwen/go-fuse/v2/fs"

	"github.com/satwik-exe/lfs"
	"github.com/satwik-exe/lfs/fuselfs"
)

const usage = `lfsmount - mount an LFS image

Usage:
  lfsmount [-debug] <image> <mountpoint>
`

func main() {
	args := os.Args[1:]
	debug := false
	var rest []string
	for _, a := range args {
		if a == "-debug" {
			debug = true
			continue
		}
		rest = append(rest, a)
	}

	if len(rest) != 2 {
		fmt.Print(usage)
		os.Exit(1)
	}
	image, mountpoint := rest[0], rest[1]

	lfs.Debug = debug

	state, err := lfs.Open(image)
	if err != nil {
		log.Fatalf("lfsmount: failed to open %s: %s", image, err)
	}

	root := fuselfs.NewRoot(state)
	server, err := fs.Mount(mountpoint, root, &fs.Options{
		MountOptions: mountOptionsFor(debug),
	})
	if err != nil {
		state.Close()
		log.Fatalf("lfsmount: mount failed: %s", err)
	}

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sig
		server.Unmount()
	}()

	server.Wait()
	if err := state.Close(); err != nil {
		log.Printf("lfsmount: checkpoint on unmount failed: %s", err)
	}
}

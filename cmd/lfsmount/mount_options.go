//go:build fuse

package main

import (
	"github.com/hanwen/go-fuse/v2/fuse"
	"golang.org/x/sys/unix"
)

// mountOptionsFor builds the fuse.MountOptions for this run. AllowOther is
// only requested when running as root, since the kernel rejects it from an
// unprivileged mount without user_allow_other in /etc/fuse.conf and a
// rejected mount is worse than a mount only the current user can see.
func mountOptionsFor(debug bool) fuse.MountOptions {
	return fuse.MountOptions{
		Debug:      debug,
		FsName:     "lfs",
		Name:       "lfs",
		AllowOther: unix.Geteuid() == 0,
	}
}

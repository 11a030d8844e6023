// Command lfsutil inspects an LFS image without mounting it.
package main

import (
	"fmt"
	"os"

	"github.com/satwik-exe/lfs"
)

const usage = `lfsutil - LFS image inspection tool

Usage:
  lfsutil ls <image>                List files at the root of <image>
  lfsutil cat <image> <name>        Display the contents of a file
  lfsutil info <image>              Display superblock information
  lfsutil fsck <image>              Check basic image consistency
  lfsutil help                      Show this help message
`

func main() {
	if len(os.Args) < 2 {
		fmt.Print(usage)
		os.Exit(1)
	}

	cmd := os.Args[1]

	switch cmd {
	case "ls":
		if len(os.Args) < 3 {
			errExit("missing image path")
		}
		if err := listFiles(os.Args[2]); err != nil {
			errExit(err.Error())
		}

	case "cat":
		if len(os.Args) < 4 {
			errExit("missing image path or file name")
		}
		if err := catFile(os.Args[2], os.Args[3]); err != nil {
			errExit(err.Error())
		}

	case "info":
		if len(os.Args) < 3 {
			errExit("missing image path")
		}
		if err := showInfo(os.Args[2]); err != nil {
			errExit(err.Error())
		}

	case "fsck":
		if len(os.Args) < 3 {
			errExit("missing image path")
		}
		if err := fsck(os.Args[2]); err != nil {
			errExit(err.Error())
		}

	case "help":
		fmt.Print(usage)

	default:
		fmt.Fprintf(os.Stderr, "Error: unknown command '%s'\n", cmd)
		fmt.Print(usage)
		os.Exit(1)
	}
}

func errExit(msg string) {
	fmt.Fprintf(os.Stderr, "Error: %s\n", msg)
	os.Exit(1)
}

func listFiles(path string) error {
	st, err := lfs.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open image: %w", err)
	}
	defer st.CloseReadOnly()

	names, err := st.ReadDir("/")
	if err != nil {
		return fmt.Errorf("failed to read root directory: %w", err)
	}
	for _, n := range names {
		if n == "." || n == ".." {
			continue
		}
		attr, err := st.GetAttr("/" + n)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to stat '%s': %s\n", n, err)
			continue
		}
		fmt.Printf("%s %8d %s\n", attr.Mode, attr.Size, n)
	}
	return nil
}

func catFile(path, name string) error {
	st, err := lfs.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open image: %w", err)
	}
	defer st.CloseReadOnly()

	attr, err := st.GetAttr("/" + name)
	if err != nil {
		return fmt.Errorf("'%s' not found: %w", name, err)
	}
	data, err := st.Read("/"+name, 0, int(attr.Size))
	if err != nil {
		return fmt.Errorf("failed to read '%s': %w", name, err)
	}
	_, err = os.Stdout.Write(data)
	return err
}

func showInfo(path string) error {
	st, err := lfs.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open image: %w", err)
	}
	defer st.CloseReadOnly()

	root, err := st.GetAttr("/")
	if err != nil {
		return fmt.Errorf("failed to stat root: %w", err)
	}
	fmt.Printf("root inode:   %d\n", root.InodeNo)
	fmt.Printf("root mode:    %s\n", root.Mode)
	names, err := st.ReadDir("/")
	if err != nil {
		return err
	}
	count := 0
	for _, n := range names {
		if n != "." && n != ".." {
			count++
		}
	}
	fmt.Printf("entries:      %d\n", count)
	return nil
}

// fsck walks the inode map and every live inode's direct[], checking
// invariants 1-2: every occupied inode map entry points inside the log at
// a block whose stored inode number matches, and every direct pointer
// points inside the log too. It also confirms the root directory and every entry it names still
// resolve, then reports every violation found — read-only, no repair.
func fsck(path string) error {
	st, err := lfs.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open image: %w", err)
	}
	defer st.CloseReadOnly()

	violations, err := st.Check()
	if err != nil {
		return fmt.Errorf("inode map walk failed: %w", err)
	}
	for _, v := range violations {
		fmt.Printf("BAD  inode %d: %s\n", v.InodeNo, v.Detail)
	}

	names, err := st.ReadDir("/")
	if err != nil {
		return fmt.Errorf("root directory unreadable: %w", err)
	}

	bad := len(violations)
	for _, n := range names {
		if n == "." || n == ".." {
			continue
		}
		if _, err := st.GetAttr("/" + n); err != nil {
			fmt.Printf("BAD  %s: %s\n", n, err)
			bad++
			continue
		}
		fmt.Printf("OK   %s\n", n)
	}

	if bad > 0 {
		return fmt.Errorf("%d problems found", bad)
	}
	fmt.Println("image consistent")
	return nil
}

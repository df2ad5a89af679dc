package pictdb

import (
	"os"

	"golang.org/x/sys/unix"
)

// fsync flushes f's data and metadata to stable storage, the way
// filesystem/ext4 forces its superblock writes through before trusting them.
func fsync(f *os.File) error {
	return unix.Fsync(int(f.Fd()))
}

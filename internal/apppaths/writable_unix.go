//go:build unix

package apppaths

import "golang.org/x/sys/unix"

// checkWritable asks the kernel rather than probing with a scratch file,
// so resolution never leaves anything behind in the directory.
func checkWritable(dir string) error {
	return unix.Access(dir, unix.W_OK|unix.X_OK)
}

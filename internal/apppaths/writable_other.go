//go:build !unix

package apppaths

import (
	"errors"
	"os"
)

func checkWritable(dir string) error {
	info, err := os.Stat(dir)
	if err != nil {
		return err
	}
	if info.Mode().Perm()&0200 == 0 {
		return errors.New("owner write bit not set")
	}
	return nil
}

// Package atomicfile persists files with all-or-nothing semantics: content
// lands under the target name completely, or the target is left untouched.
package atomicfile

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
)

// Write streams r to filename via a temp file in the same directory (rename
// is only atomic within one volume), fsyncing before the rename so a crash
// cannot leave a zero-length file under the real name.
func Write(filename string, r io.Reader, perm os.FileMode) (n int64, err error) {
	fi, err := os.Stat(filename)
	if err == nil && !fi.Mode().IsRegular() {
		return 0, fmt.Errorf("%s already exists and is not a regular file", filename)
	}

	f, err := os.CreateTemp(filepath.Dir(filename), filepath.Base(filename)+".tmp")
	if err != nil {
		return 0, err
	}
	tmpName := f.Name()
	defer func() {
		if err != nil {
			f.Close()
			os.Remove(tmpName)
		}
	}()

	n, err = io.Copy(f, r)
	if err != nil {
		return 0, err
	}
	if runtime.GOOS != "windows" {
		if err := f.Chmod(perm); err != nil {
			return 0, err
		}
	}
	if err := f.Sync(); err != nil {
		return 0, err
	}
	if err := f.Close(); err != nil {
		return 0, err
	}
	err = os.Rename(tmpName, filename)
	return n, err
}

// WriteBytes is Write for in-memory content.
func WriteBytes(filename string, data []byte, perm os.FileMode) error {
	_, err := Write(filename, bytes.NewReader(data), perm)
	return err
}

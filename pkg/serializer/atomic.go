package serializer

import (
	"os"
	"path/filepath"
)

const filePerm = 0o644

// atomicFile is a temporary file renamed onto path by commit.
type atomicFile struct {
	path string
	tmp  *os.File
}

func createAtomic(path string) (*atomicFile, error) {
	dir, base := filepath.Split(path)
	if dir == "" {
		dir = "."
	}

	err := os.MkdirAll(dir, 0o750)
	if err != nil {
		return nil, newIOError("create directory", dir, err)
	}

	tmp, err := os.CreateTemp(dir, "."+base+".*.tmp")
	if err != nil {
		return nil, newIOError("create", path, err)
	}

	return &atomicFile{path: path, tmp: tmp}, nil
}

func (f *atomicFile) tmpName() string {
	return f.tmp.Name()
}

// close flushes the temporary file to disk. The destination is not touched.
func (f *atomicFile) close() error {
	err := f.tmp.Sync()
	if err != nil {
		_ = f.tmp.Close()

		return newIOError("sync", f.path, err)
	}

	err = f.tmp.Close()
	if err != nil {
		return newIOError("close", f.path, err)
	}

	err = os.Chmod(f.tmp.Name(), filePerm)
	if err != nil {
		return newIOError("chmod", f.path, err)
	}

	return nil
}

// rename moves the closed temporary file onto the destination, replacing it.
func (f *atomicFile) rename() error {
	err := os.Rename(f.tmp.Name(), f.path)
	if err != nil {
		return newIOError("rename", f.path, err)
	}

	return nil
}

// remove drops the temporary file. It is safe to call after close.
func (f *atomicFile) remove() error {
	_ = f.tmp.Close()

	err := os.Remove(f.tmp.Name())
	if err != nil && !os.IsNotExist(err) {
		return newIOError("remove", f.tmp.Name(), err)
	}

	return nil
}

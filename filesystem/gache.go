package filesystem

import (
	"io"
	"os"
)

// GacheFs bridges gache's filesystem interface onto the swappable backend, so cached data
// follows the same in-memory substitution as everything else under test.
type GacheFs struct{}

func (GacheFs) OpenFile(name string, flag int, perm os.FileMode) (io.ReadWriteCloser, error) {
	return API().OpenFile(name, flag, perm)
}

func (GacheFs) MkdirAll(path string, perm os.FileMode) error {
	return API().MkdirAll(path, perm)
}

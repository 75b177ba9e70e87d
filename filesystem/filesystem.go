// Package filesystem is the single seam through which the application touches disk. Tests swap
// the backing store for an in-memory filesystem and run fully isolated.
package filesystem

import "github.com/spf13/afero"

var backend = afero.Afero{Fs: afero.NewOsFs()}

// API returns the current filesystem backend.
func API() afero.Afero {
	return backend
}

// SetOsFs points the backend at the real operating system filesystem.
func SetOsFs() {
	backend = afero.Afero{Fs: afero.NewOsFs()}
}

// SetMemMapFs replaces the backend with a fresh in-memory filesystem. State written by a
// previous call is discarded.
func SetMemMapFs() {
	backend = afero.Afero{Fs: afero.NewMemMapFs()}
}

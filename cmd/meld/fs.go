package main

import (
	"io/fs"
	"os"
)

// osFileSystem is the real-disk capability.FileSystem implementation
// (spec §6.1): a thin pass-through to os, the same boundary shape the
// teacher injects its shell/vault capabilities through rather than
// calling os directly from core logic.
type osFileSystem struct{}

func (osFileSystem) Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func (osFileSystem) Read(path string) ([]byte, error) {
	return os.ReadFile(path)
}

// Write replaces path atomically: the bytes go to a sibling temp file
// that is then renamed over path.
func (osFileSystem) Write(path string, data []byte) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return nil
}

func (osFileSystem) Mkdir(path string, recursive bool) error {
	if recursive {
		return os.MkdirAll(path, 0o755)
	}
	return os.Mkdir(path, 0o755)
}

func (osFileSystem) Stat(path string) (fs.FileInfo, error) {
	return os.Stat(path)
}

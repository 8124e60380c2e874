//go:build mage

package main

import (
	"os"
	"path/filepath"

	"github.com/magefile/mage/mg"
)

var Default = Build.Tool

type Build mg.Namespace

// Tool builds gltftool into ./bin.
func (Build) Tool() error {
	if err := os.MkdirAll("bin", 0755); err != nil {
		return err
	}
	out := filepath.Join("bin", "gltftool")
	_, err := executeCmd("go", withArgs("build", "-o", out, "./cmd/gltftool"), withStream())
	return err
}

// Install installs gltftool into GOBIN.
func (Build) Install() error {
	_, err := executeCmd("go", withArgs("install", "./cmd/gltftool"), withStream())
	return err
}

// Tidy runs go mod tidy.
func (Build) Tidy() error {
	_, err := executeCmd("go", withArgs("mod", "tidy"))
	return err
}

// Clean removes build output.
func Clean() error {
	return os.RemoveAll("bin")
}

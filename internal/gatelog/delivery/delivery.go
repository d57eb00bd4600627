// Package delivery hands export artifacts to whatever sits outside the
// process: a directory, a download, an upload.  Each Deliver call either
// fully delivers the named artifact or returns an error; there is no undo.
package delivery

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
)

type Kind string

const (
	KindReport Kind = "report"
	KindPhoto  Kind = "photo"
)

type Artifact struct {
	Name    string
	Kind    Kind
	Content []byte
}

type Deliverer interface {
	Deliver(ctx context.Context, a Artifact) error
}

var ErrInvalidName = errors.New("artifact name must be a plain file name")

// ValidName rejects names that would escape the destination.
func ValidName(name string) bool {
	if name == "" || name == "." || name == ".." {
		return false
	}
	if strings.ContainsAny(name, `/\`) {
		return false
	}
	return filepath.Base(name) == name
}

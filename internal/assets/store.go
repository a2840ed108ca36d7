// Package assets loads the transparent PNG stickers used by the overlay
// compositor.
package assets

import (
	"errors"
	"fmt"
	"io/fs"
	"path"
	"regexp"
	"strings"

	"gocv.io/x/gocv"
)

var (
	ErrAssetNotFound = errors.New("asset not found")
	ErrInvalidName   = errors.New("invalid asset name")
	ErrUndecodable   = errors.New("asset could not be decoded")
)

// Asset names come straight from the request body. Display names such as
// "Side Part" or "Bob 2.0" are allowed; separators and dot segments are not.
var namePattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9 ._-]{0,127}$`)

func validName(s string) bool {
	return namePattern.MatchString(s) && !strings.Contains(s, "..")
}

// Store returns a fresh copy of an asset image, with its alpha channel when
// the file has one. Callers own the returned Mat.
type Store interface {
	Load(category, name string) (gocv.Mat, error)
}

// FSStore reads {category}/{name}.png from a file system.
type FSStore struct {
	fsys fs.FS
}

var _ Store = (*FSStore)(nil)

func NewFSStore(fsys fs.FS) *FSStore {
	return &FSStore{fsys: fsys}
}

func (s *FSStore) Load(category, name string) (gocv.Mat, error) {
	p, err := Path(category, name)
	if err != nil {
		return gocv.NewMat(), err
	}

	data, err := fs.ReadFile(s.fsys, p)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return gocv.NewMat(), fmt.Errorf("%s: %w", p, ErrAssetNotFound)
		}
		return gocv.NewMat(), fmt.Errorf("read %s: %w", p, err)
	}

	img, err := gocv.IMDecode(data, gocv.IMReadUnchanged)
	if err != nil {
		return gocv.NewMat(), fmt.Errorf("%s: %w: %v", p, ErrUndecodable, err)
	}
	if img.Empty() {
		_ = img.Close()
		return gocv.NewMat(), fmt.Errorf("%s: %w", p, ErrUndecodable)
	}
	return img, nil
}

// Path validates category and name and returns the slash-separated asset
// path relative to the store root.
func Path(category, name string) (string, error) {
	if !validName(category) {
		return "", fmt.Errorf("%w: category %q", ErrInvalidName, category)
	}
	if !validName(name) {
		return "", fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	p := path.Join(category, name+".png")
	if !fs.ValidPath(p) {
		return "", fmt.Errorf("%w: %q", ErrInvalidName, p)
	}
	return p, nil
}

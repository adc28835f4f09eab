// Package pak provides reading functionality for Quake PACK archives.
package pak

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/Faultbox/bsplight/pkg/encoding"
)

const pakMagic = "PACK"

const (
	headerSize = 12
	entrySize  = 64
	nameSize   = 56
)

// Errors returned when opening an archive.
var (
	ErrNotPak       = errors.New("pak: not a PACK file")
	ErrBadDirectory = errors.New("pak: malformed directory")
	ErrNotFound     = errors.New("pak: file not found")
)

// Archive represents an opened PACK archive.
type Archive struct {
	r        io.ReaderAt
	closer   io.Closer
	size     int64
	fileList map[string]*Entry
}

// Header is the fixed PACK header.
type Header struct {
	Magic     [4]byte
	DirOffset int32
	DirLength int32
}

// Entry represents a file entry in the archive.
type Entry struct {
	Name   string
	Offset int64
	Size   int64
}

type rawEntry struct {
	Name   [nameSize]byte
	Offset int32
	Size   int32
}

// Open opens a PACK archive for reading.
func Open(path string) (*Archive, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening file: %w", err)
	}
	info, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("stat: %w", err)
	}

	archive, err := OpenReader(file, info.Size())
	if err != nil {
		file.Close()
		return nil, err
	}
	archive.closer = file
	return archive, nil
}

// OpenReader reads an archive of the given size from r.
func OpenReader(r io.ReaderAt, size int64) (*Archive, error) {
	a := &Archive{r: r, size: size, fileList: make(map[string]*Entry)}
	h, err := a.readHeader()
	if err != nil {
		return nil, fmt.Errorf("reading header: %w", err)
	}
	if err := a.readDirectory(h); err != nil {
		return nil, fmt.Errorf("reading directory: %w", err)
	}
	return a, nil
}

// Close closes the archive.
func (a *Archive) Close() error {
	if a.closer != nil {
		return a.closer.Close()
	}
	return nil
}

func (a *Archive) readHeader() (Header, error) {
	var h Header
	if err := binary.Read(io.NewSectionReader(a.r, 0, headerSize), binary.LittleEndian, &h); err != nil {
		return h, fmt.Errorf("%w: %v", ErrNotPak, err)
	}
	if string(h.Magic[:]) != pakMagic {
		return h, ErrNotPak
	}
	return h, nil
}

func (a *Archive) readDirectory(h Header) error {
	if h.DirOffset < 0 || h.DirLength < 0 || h.DirLength%entrySize != 0 {
		return fmt.Errorf("%w: offset %d length %d", ErrBadDirectory, h.DirOffset, h.DirLength)
	}
	if int64(h.DirOffset)+int64(h.DirLength) > a.size {
		return fmt.Errorf("%w: directory ends past the file", ErrBadDirectory)
	}

	raw := make([]rawEntry, h.DirLength/entrySize)
	sr := io.NewSectionReader(a.r, int64(h.DirOffset), int64(h.DirLength))
	if err := binary.Read(sr, binary.LittleEndian, raw); err != nil {
		return err
	}

	for i, e := range raw {
		entry := &Entry{
			Name:   encoding.NormalizePath(encoding.FixedString(e.Name[:])),
			Offset: int64(e.Offset),
			Size:   int64(e.Size),
		}
		if entry.Offset < 0 || entry.Size < 0 || entry.Offset+entry.Size > a.size {
			return fmt.Errorf("%w: entry %d (%s) out of bounds", ErrBadDirectory, i, entry.Name)
		}
		// Later entries win, as in the engine's search order.
		a.fileList[entry.Name] = entry
	}
	return nil
}

// List returns all file paths in the archive, sorted.
func (a *Archive) List() []string {
	result := make([]string, 0, len(a.fileList))
	for path := range a.fileList {
		result = append(result, path)
	}
	sort.Strings(result)
	return result
}

// Entry returns the directory entry for path.
func (a *Archive) Entry(path string) (Entry, bool) {
	e, ok := a.fileList[encoding.NormalizePath(path)]
	if !ok {
		return Entry{}, false
	}
	return *e, true
}

// Contains checks if a file exists.
func (a *Archive) Contains(path string) bool {
	_, ok := a.fileList[encoding.NormalizePath(path)]
	return ok
}

// Open returns a reader over one file.
func (a *Archive) Open(path string) (*io.SectionReader, error) {
	e, ok := a.fileList[encoding.NormalizePath(path)]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
	}
	return io.NewSectionReader(a.r, e.Offset, e.Size), nil
}

// Read reads a file from the archive.
func (a *Archive) Read(path string) ([]byte, error) {
	sr, err := a.Open(path)
	if err != nil {
		return nil, err
	}
	data := make([]byte, sr.Size())
	if _, err := io.ReadFull(sr, data); err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return data, nil
}

// SplitPath splits "archive.pak:maps/e1m1.bsp" into the archive and member
// paths. ok is false for plain file paths.
func SplitPath(path string) (archive, member string, ok bool) {
	i := strings.Index(strings.ToLower(path), ".pak:")
	if i < 0 {
		return "", "", false
	}
	return path[:i+4], path[i+5:], true
}

// ReadPath reads a plain file, or a member of an archive when path uses
// the "archive.pak:member" form.
func ReadPath(path string) ([]byte, error) {
	archivePath, member, ok := SplitPath(path)
	if !ok {
		return os.ReadFile(path)
	}
	a, err := Open(archivePath)
	if err != nil {
		return nil, err
	}
	defer a.Close()
	return a.Read(member)
}

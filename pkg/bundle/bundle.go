// Package bundle reads and writes mesh bundles: a single archive file
// holding named, zlib-compressed mesh blobs.
//
// Layout (little endian):
//
//	header   46 bytes: magic[15] reserved[15] tableOffset u32 reserved u32 count u32 version u32
//	data     entry payloads, each zlib compressed
//	table    compressed size u32, size u32, zlib(name\0 compSize u32 size u32 offset u32 ...)
//
// Offsets are relative to the end of the header.
package bundle

import (
	"bytes"
	"compress/zlib"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
)

const (
	magic      = "SketchplaneMesh"
	headerSize = 46
	entrySize  = 12 // compSize + size + offset

	// Version is the only bundle version understood by this package.
	Version = 0x100
)

// Bundle errors.
var (
	ErrInvalidMagic       = errors.New("invalid bundle magic")
	ErrUnsupportedVersion = errors.New("unsupported bundle version")
	ErrNotFound           = errors.New("entry not found")
	ErrCorrupt            = errors.New("corrupt bundle")
)

// Header is the fixed-size bundle header.
type Header struct {
	Magic       [15]byte
	Reserved    [15]byte
	TableOffset uint32
	Seed        uint32
	EntryCount  uint32
	Version     uint32
}

// Entry describes one stored payload.
type Entry struct {
	Name             string
	CompressedSize   uint32
	UncompressedSize uint32
	Offset           uint32
}

// Archive is an open bundle.
type Archive struct {
	r       io.ReadSeeker
	size    int64
	closer  io.Closer
	header  Header
	entries map[string]*Entry
}

// Open opens a bundle file for reading.
func Open(path string) (*Archive, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening file: %w", err)
	}

	a, err := NewReader(file)
	if err != nil {
		file.Close()
		return nil, err
	}
	a.closer = file
	return a, nil
}

// NewReader reads the header and entry table from r.
func NewReader(r io.ReadSeeker) (*Archive, error) {
	a := &Archive{
		r:       r,
		entries: make(map[string]*Entry),
	}

	size, err := r.Seek(0, io.SeekEnd)
	if err != nil {
		return nil, fmt.Errorf("measuring bundle: %w", err)
	}
	a.size = size

	if err := a.readHeader(); err != nil {
		return nil, fmt.Errorf("reading header: %w", err)
	}
	if err := a.readTable(); err != nil {
		return nil, fmt.Errorf("reading entry table: %w", err)
	}
	return a, nil
}

// Close closes the underlying file, if the archive owns one.
func (a *Archive) Close() error {
	if a.closer != nil {
		err := a.closer.Close()
		a.closer = nil
		return err
	}
	return nil
}

// Header returns the bundle header.
func (a *Archive) Header() Header {
	return a.header
}

func (a *Archive) readHeader() error {
	if _, err := a.r.Seek(0, io.SeekStart); err != nil {
		return err
	}
	if err := binary.Read(a.r, binary.LittleEndian, &a.header); err != nil {
		return fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	if string(a.header.Magic[:]) != magic {
		return ErrInvalidMagic
	}
	if a.header.Version != Version {
		return fmt.Errorf("%w: 0x%x", ErrUnsupportedVersion, a.header.Version)
	}
	return nil
}

func (a *Archive) readTable() error {
	start := int64(a.header.TableOffset) + headerSize
	if start > a.size {
		return fmt.Errorf("%w: table offset %d past end of bundle", ErrCorrupt, a.header.TableOffset)
	}
	if _, err := a.r.Seek(start, io.SeekStart); err != nil {
		return err
	}

	var sizes [2]uint32
	if err := binary.Read(a.r, binary.LittleEndian, &sizes); err != nil {
		return fmt.Errorf("%w: table sizes: %v", ErrCorrupt, err)
	}
	if !a.fits(start+8, sizes[0]) {
		return fmt.Errorf("%w: table of %d bytes past end of bundle", ErrCorrupt, sizes[0])
	}

	compressed := make([]byte, sizes[0])
	if _, err := io.ReadFull(a.r, compressed); err != nil {
		return fmt.Errorf("%w: table data: %v", ErrCorrupt, err)
	}
	table, err := inflate(compressed, sizes[1])
	if err != nil {
		return fmt.Errorf("%w: table: %v", ErrCorrupt, err)
	}

	offset := 0
	for i := uint32(0); i < a.header.EntryCount; i++ {
		nameEnd := bytes.IndexByte(table[offset:], 0)
		if nameEnd < 0 {
			return fmt.Errorf("%w: entry %d name not terminated", ErrCorrupt, i)
		}
		name := string(table[offset : offset+nameEnd])
		offset += nameEnd + 1

		if offset+entrySize > len(table) {
			return fmt.Errorf("%w: entry %d truncated", ErrCorrupt, i)
		}
		a.entries[name] = &Entry{
			Name:             name,
			CompressedSize:   binary.LittleEndian.Uint32(table[offset:]),
			UncompressedSize: binary.LittleEndian.Uint32(table[offset+4:]),
			Offset:           binary.LittleEndian.Uint32(table[offset+8:]),
		}
		offset += entrySize
	}
	return nil
}

// List returns all entry names, sorted.
func (a *Archive) List() []string {
	names := make([]string, 0, len(a.entries))
	for name := range a.entries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Contains reports whether an entry exists.
func (a *Archive) Contains(name string) bool {
	_, ok := a.entries[name]
	return ok
}

// Stat returns the entry metadata for name.
func (a *Archive) Stat(name string) (Entry, bool) {
	e, ok := a.entries[name]
	if !ok {
		return Entry{}, false
	}
	return *e, true
}

// Read returns the decompressed payload of an entry. The returned slice
// is freshly allocated.
func (a *Archive) Read(name string) ([]byte, error) {
	entry, ok := a.entries[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}

	start := int64(entry.Offset) + headerSize
	if !a.fits(start, entry.CompressedSize) {
		return nil, fmt.Errorf("%w: %s: %d bytes at offset %d past end of bundle",
			ErrCorrupt, name, entry.CompressedSize, entry.Offset)
	}
	if _, err := a.r.Seek(start, io.SeekStart); err != nil {
		return nil, err
	}
	compressed := make([]byte, entry.CompressedSize)
	if _, err := io.ReadFull(a.r, compressed); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrCorrupt, name, err)
	}

	data, err := inflate(compressed, entry.UncompressedSize)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrCorrupt, name, err)
	}
	return data, nil
}

// fits reports whether n bytes starting at off lie inside the bundle.
func (a *Archive) fits(off int64, n uint32) bool {
	return off >= 0 && off+int64(n) <= a.size
}

// inflate decompresses exactly size bytes. The output grows with the
// data actually decoded, so a corrupt size cannot force a large
// allocation.
func inflate(compressed []byte, size uint32) ([]byte, error) {
	reader, err := zlib.NewReader(bytes.NewReader(compressed))
	if err != nil {
		return nil, err
	}
	defer reader.Close()

	out, err := io.ReadAll(io.LimitReader(reader, int64(size)))
	if err != nil {
		return nil, err
	}
	if len(out) != int(size) {
		return nil, fmt.Errorf("decompressed %d bytes, want %d: %w", len(out), size, io.ErrUnexpectedEOF)
	}
	return out, nil
}

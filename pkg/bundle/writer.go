package bundle

import (
	"bytes"
	"compress/zlib"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Writer collects entries in memory and serializes them as a bundle.
type Writer struct {
	names []string
	data  map[string][]byte
}

// NewWriter creates an empty bundle writer.
func NewWriter() *Writer {
	return &Writer{data: make(map[string][]byte)}
}

// Add stores a payload under name. Adding the same name twice replaces
// the earlier payload but keeps its position.
func (w *Writer) Add(name string, payload []byte) error {
	if name == "" {
		return fmt.Errorf("bundle entry name is empty")
	}
	if bytes.IndexByte([]byte(name), 0) >= 0 {
		return fmt.Errorf("bundle entry name %q contains NUL", name)
	}
	if _, ok := w.data[name]; !ok {
		w.names = append(w.names, name)
	}
	w.data[name] = append([]byte(nil), payload...)
	return nil
}

// Len returns the number of entries.
func (w *Writer) Len() int {
	return len(w.names)
}

// WriteTo writes the bundle to out.
func (w *Writer) WriteTo(out io.Writer) (int64, error) {
	var body bytes.Buffer
	var table bytes.Buffer

	for _, name := range w.names {
		payload := w.data[name]
		compressed, err := deflate(payload)
		if err != nil {
			return 0, fmt.Errorf("compressing %s: %w", name, err)
		}

		table.WriteString(name)
		table.WriteByte(0)
		binary.Write(&table, binary.LittleEndian, uint32(len(compressed)))
		binary.Write(&table, binary.LittleEndian, uint32(len(payload)))
		binary.Write(&table, binary.LittleEndian, uint32(body.Len()))
		body.Write(compressed)
	}

	compressedTable, err := deflate(table.Bytes())
	if err != nil {
		return 0, fmt.Errorf("compressing table: %w", err)
	}

	header := Header{
		TableOffset: uint32(body.Len()),
		EntryCount:  uint32(len(w.names)),
		Version:     Version,
	}
	copy(header.Magic[:], magic)

	var buf bytes.Buffer
	binary.Write(&buf, binary.LittleEndian, header)
	buf.Write(body.Bytes())
	binary.Write(&buf, binary.LittleEndian, uint32(len(compressedTable)))
	binary.Write(&buf, binary.LittleEndian, uint32(table.Len()))
	buf.Write(compressedTable)

	return buf.WriteTo(out)
}

// WriteFile writes the bundle to path, creating parent directories.
func (w *Writer) WriteFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	var buf bytes.Buffer
	if _, err := w.WriteTo(&buf); err != nil {
		return err
	}
	return os.WriteFile(path, buf.Bytes(), 0644)
}

func deflate(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	zw := zlib.NewWriter(&buf)
	if _, err := zw.Write(data); err != nil {
		return nil, err
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

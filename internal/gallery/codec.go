package gallery

import (
	"bytes"
	"encoding/gob"
	"errors"
	"fmt"
	"math"
)

// ErrCorruptData is returned when a persisted gallery cannot be decoded.
var ErrCorruptData = errors.New("corrupt gallery data")

var codecMagic = [4]byte{'F', 'G', 'A', 'L'}

const codecVersion = 1

// storedGallery is the gob payload written after the magic and version header.
type storedGallery struct {
	Dim     int
	Entries []Entry
}

// Encode serializes a gallery into the persisted blob format.
func Encode(g *Gallery) ([]byte, error) {
	var buf bytes.Buffer
	buf.Write(codecMagic[:])
	buf.WriteByte(codecVersion)

	enc := gob.NewEncoder(&buf)
	if err := enc.Encode(storedGallery{Dim: g.Dim(), Entries: g.Entries()}); err != nil {
		return nil, fmt.Errorf("failed to encode gallery: %w", err)
	}
	return buf.Bytes(), nil
}

// Decode parses a blob written by Encode. Any malformed input, including truncated
// data, trailing bytes and inconsistent dimensions, yields ErrCorruptData.
func Decode(data []byte) (*Gallery, error) {
	if len(data) < len(codecMagic)+1 {
		return nil, fmt.Errorf("%w: %d bytes is shorter than the header", ErrCorruptData, len(data))
	}
	if !bytes.Equal(data[:len(codecMagic)], codecMagic[:]) {
		return nil, fmt.Errorf("%w: bad magic", ErrCorruptData)
	}
	if v := data[len(codecMagic)]; v != codecVersion {
		return nil, fmt.Errorf("%w: unsupported version %d", ErrCorruptData, v)
	}

	r := bytes.NewReader(data[len(codecMagic)+1:])
	var stored storedGallery
	if err := gob.NewDecoder(r).Decode(&stored); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorruptData, err)
	}
	if r.Len() != 0 {
		return nil, fmt.Errorf("%w: %d trailing bytes", ErrCorruptData, r.Len())
	}

	seen := make(map[string]struct{}, len(stored.Entries))
	for _, e := range stored.Entries {
		if e.Name == "" {
			return nil, fmt.Errorf("%w: entry without name", ErrCorruptData)
		}
		if _, dup := seen[e.Name]; dup {
			return nil, fmt.Errorf("%w: duplicate entry %q", ErrCorruptData, e.Name)
		}
		seen[e.Name] = struct{}{}
		if len(e.Embedding) != stored.Dim || stored.Dim == 0 {
			return nil, fmt.Errorf("%w: entry %q has %d dimensions, header says %d",
				ErrCorruptData, e.Name, len(e.Embedding), stored.Dim)
		}
		for _, v := range e.Embedding {
			if math.IsNaN(float64(v)) || math.IsInf(float64(v), 0) {
				return nil, fmt.Errorf("%w: entry %q has non-finite values", ErrCorruptData, e.Name)
			}
		}
	}

	return New(stored.Entries), nil
}

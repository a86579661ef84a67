package format

import (
	"encoding/binary"
	"errors"
	"fmt"
	"hash/crc32"
)

const (
	// MetaSize is the encoded size of a Meta record.
	MetaSize = 32
	// Version is the current format version.
	Version uint16 = 1

	flagWeighted  uint16 = 1 << 0
	flagReordered uint16 = 1 << 1
)

var magic = [4]byte{'G', 'W', 'M', 'T'}

var castagnoli = crc32.MakeTable(crc32.Castagnoli)

var (
	// ErrCorrupt is returned for dataset files that fail validation.
	ErrCorrupt = errors.New("format: corrupt dataset")
	// ErrUnsupportedVersion is returned for meta records from a newer writer.
	ErrUnsupportedVersion = errors.New("format: unsupported version")
)

// Meta is the dataset header.
type Meta struct {
	Version   uint16
	Weighted  bool
	Reordered bool
	NVertices uint32
	NEdges    uint64
}

// MarshalBinary encodes m into MetaSize bytes.
func (m Meta) MarshalBinary() ([]byte, error) {
	buf := make([]byte, MetaSize)
	copy(buf[0:4], magic[:])

	version := m.Version
	if version == 0 {
		version = Version
	}
	binary.LittleEndian.PutUint16(buf[4:6], version)

	var flags uint16
	if m.Weighted {
		flags |= flagWeighted
	}
	if m.Reordered {
		flags |= flagReordered
	}
	binary.LittleEndian.PutUint16(buf[6:8], flags)
	binary.LittleEndian.PutUint32(buf[8:12], m.NVertices)
	binary.LittleEndian.PutUint64(buf[16:24], m.NEdges)
	binary.LittleEndian.PutUint32(buf[24:28], crc32.Checksum(buf[:24], castagnoli))
	return buf, nil
}

// UnmarshalBinary decodes and validates a meta record.
func (m *Meta) UnmarshalBinary(buf []byte) error {
	if len(buf) != MetaSize {
		return fmt.Errorf("%w: meta record is %d bytes, want %d", ErrCorrupt, len(buf), MetaSize)
	}
	if [4]byte(buf[0:4]) != magic {
		return fmt.Errorf("%w: bad magic %q", ErrCorrupt, buf[0:4])
	}
	if sum := crc32.Checksum(buf[:24], castagnoli); sum != binary.LittleEndian.Uint32(buf[24:28]) {
		return fmt.Errorf("%w: meta checksum mismatch", ErrCorrupt)
	}

	version := binary.LittleEndian.Uint16(buf[4:6])
	if version > Version {
		return fmt.Errorf("%w: %d", ErrUnsupportedVersion, version)
	}
	flags := binary.LittleEndian.Uint16(buf[6:8])

	*m = Meta{
		Version:   version,
		Weighted:  flags&flagWeighted != 0,
		Reordered: flags&flagReordered != 0,
		NVertices: binary.LittleEndian.Uint32(buf[8:12]),
		NEdges:    binary.LittleEndian.Uint64(buf[16:24]),
	}
	return nil
}

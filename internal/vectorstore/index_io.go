package vectorstore

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
)

var indexMagic = [4]byte{'D', 'R', 'V', 'I'}

const indexVersion uint32 = 1

// Save serializes the index to w.
//
// Format:
//
//	[4B magic "DRVI"] [4B version]
//	[4B dim] [8B count]
//	[count × dim × 4B float32]
//
// All integers and floats are little-endian. Ids are implicit: the i-th
// stored vector has id i.
func (x *FlatIndex) Save(w io.Writer) error {
	bw := bufio.NewWriter(w)
	le := binary.LittleEndian

	if _, err := bw.Write(indexMagic[:]); err != nil {
		return fmt.Errorf("vectorstore: save magic: %w", err)
	}
	for _, v := range []any{indexVersion, uint32(x.dim), uint64(x.Len())} {
		if err := binary.Write(bw, le, v); err != nil {
			return fmt.Errorf("vectorstore: save header: %w", err)
		}
	}
	if len(x.data) > 0 {
		if err := binary.Write(bw, le, x.data); err != nil {
			return fmt.Errorf("vectorstore: save vectors: %w", err)
		}
	}
	return bw.Flush()
}

// LoadFlatIndex deserializes an index written by Save. Trailing bytes after
// the declared vectors are treated as corruption.
func LoadFlatIndex(r io.Reader) (*FlatIndex, error) {
	br := bufio.NewReader(r)
	le := binary.LittleEndian

	var magic [4]byte
	if _, err := io.ReadFull(br, magic[:]); err != nil {
		return nil, fmt.Errorf("vectorstore: load magic: %w", err)
	}
	if magic != indexMagic {
		return nil, fmt.Errorf("vectorstore: invalid index magic %q", magic[:])
	}

	var (
		version, dim uint32
		count        uint64
	)
	if err := binary.Read(br, le, &version); err != nil {
		return nil, fmt.Errorf("vectorstore: load version: %w", err)
	}
	if version != indexVersion {
		return nil, fmt.Errorf("vectorstore: unsupported index version %d (want %d)", version, indexVersion)
	}
	if err := binary.Read(br, le, &dim); err != nil {
		return nil, fmt.Errorf("vectorstore: load dim: %w", err)
	}
	if dim == 0 {
		return nil, errors.New("vectorstore: invalid dimension 0 in serialized index")
	}
	if err := binary.Read(br, le, &count); err != nil {
		return nil, fmt.Errorf("vectorstore: load count: %w", err)
	}
	if count > uint64(math.MaxInt32)/uint64(dim) {
		return nil, fmt.Errorf("vectorstore: implausible index size %d×%d", count, dim)
	}

	x := &FlatIndex{dim: int(dim), data: make([]float32, int(count)*int(dim))}
	if len(x.data) > 0 {
		if err := binary.Read(br, le, x.data); err != nil {
			return nil, fmt.Errorf("vectorstore: load vectors: %w", err)
		}
	}
	if _, err := br.ReadByte(); err != io.EOF {
		return nil, errors.New("vectorstore: trailing data after index vectors")
	}
	return x, nil
}

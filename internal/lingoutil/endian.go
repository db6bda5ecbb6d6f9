package lingoutil

import "encoding/binary"

// ReaderAt is the minimal interface the header/node/connection decoders need;
// satisfied by *os.File, an mmap byte slice reader, or a bytes.Reader alike.
type ReaderAt interface {
	ReadAt(p []byte, off int64) (n int, err error)
}

// ReadUint64At reads a little-endian uint64 at the given offset.
func ReadUint64At(r ReaderAt, offset int64) (uint64, error) {
	buf := GetBuffer(8)
	defer ReleaseBuffer(buf)

	if _, err := r.ReadAt(buf, offset); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(buf), nil
}

// ReadUint32At reads a little-endian uint32 at the given offset.
func ReadUint32At(r ReaderAt, offset int64) (uint32, error) {
	buf := GetBuffer(4)
	defer ReleaseBuffer(buf)

	if _, err := r.ReadAt(buf, offset); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(buf), nil
}

// AlignUp8 rounds n up to the next multiple of 8, the alignment the format
// requires between sections.
func AlignUp8(n uint64) uint64 {
	return (n + 7) &^ 7
}

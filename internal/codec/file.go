package codec

import "bytes"

// FileMagic is the 8-byte save-file magic (spec §4.1, §6).
var FileMagic = [8]byte{'V', 'o', 'x', 'e', 'l', 's', ' ', ' '}

// CurrentFileVersion is the highest save-file version this build understands.
const CurrentFileVersion uint32 = 1

// WriteFileHeader writes the magic bytes and version.
func WriteFileHeader(w *Writer, version uint32) error {
	for _, b := range FileMagic {
		if err := w.WriteU8(b); err != nil {
			return err
		}
	}
	return w.WriteU32(version)
}

// ReadFileHeader reads and validates the magic and version, failing with
// KindInvalidFileFormat on a magic mismatch and KindVersionTooNew if the
// stream's version exceeds maxVersion.
func ReadFileHeader(r *Reader, maxVersion uint32) (version uint32, err error) {
	var magic [8]byte
	for i := range magic {
		b, err := r.ReadU8()
		if err != nil {
			return 0, err
		}
		magic[i] = b
	}
	if !bytes.Equal(magic[:], FileMagic[:]) {
		return 0, errf(KindInvalidFileFormat, "bad magic %q", magic[:])
	}
	version, err = r.ReadU32()
	if err != nil {
		return 0, err
	}
	if version > maxVersion {
		return 0, errf(KindVersionTooNew, "file version %d exceeds supported %d", version, maxVersion)
	}
	return version, nil
}

// InternTable assigns and resolves per-stream small indices for named
// descriptors (block/entity kinds), per spec §4.1: the first occurrence of
// a name writes a fresh index plus the name; later occurrences write only
// the index.
type InternTable struct {
	names   []string
	indices map[string]uint32
}

func NewInternTable() *InternTable {
	return &InternTable{indices: make(map[string]uint32)}
}

// WriteName emits either a fresh index + name, or just a previously
// assigned index.
func (t *InternTable) WriteName(w *Writer, name string) error {
	if idx, ok := t.indices[name]; ok {
		return w.WriteU32(idx)
	}
	idx := uint32(len(t.names))
	t.indices[name] = idx
	t.names = append(t.names, name)
	if err := w.WriteU32(idx); err != nil {
		return err
	}
	return w.WriteString(name)
}

// ReadName resolves an index to a name, reading and registering a new name
// the first time an index is seen. known is consulted to validate a freshly
// read name exists in the compiled registry; an unrecognized name fails
// with KindInvalidDataValue naming it.
func (t *InternTable) ReadName(r *Reader, known func(name string) bool) (string, error) {
	idx, err := r.ReadU32()
	if err != nil {
		return "", err
	}
	if int(idx) < len(t.names) {
		return t.names[idx], nil
	}
	if int(idx) != len(t.names) {
		return "", errf(KindInvalidDataValue, "descriptor index %d out of sequence", idx)
	}
	name, err := r.ReadString()
	if err != nil {
		return "", err
	}
	if known != nil && !known(name) {
		return "", errf(KindInvalidDataValue, "unknown descriptor name %q", name)
	}
	t.names = append(t.names, name)
	t.indices[name] = idx
	return name, nil
}

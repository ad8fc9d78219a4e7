package codec

import (
	"bytes"
	"io"
)

// Compressed-stream layer (spec §4.1): a simple LZ77 scheme with 16-bit
// codes (length: upper 6 bits, offset: lower 10 bits) followed by one
// literal byte per code. The decoder keeps a 1024-byte sliding window;
// codes naming an offset >= windowSize are a format error.
const (
	windowSize  = 1024
	maxMatchLen = 1<<6 - 1 // 63, six bits
	minMatchLen = 1        // a match of length 0 means "literal only"
)

// Compress encodes data with the codec's LZ77 scheme. Every code is
// followed by exactly one literal byte, so a match is never allowed to
// consume the last remaining byte of input.
func Compress(data []byte) []byte {
	var out bytes.Buffer
	i := 0
	for i < len(data) {
		length, offset := findMatch(data, i)
		literal := data[i+length]
		code := uint16(length)<<10 | uint16(offset)
		out.WriteByte(byte(code >> 8))
		out.WriteByte(byte(code))
		out.WriteByte(literal)
		i += length + 1
	}
	return out.Bytes()
}

func findMatch(data []byte, pos int) (length, offset int) {
	// The offset field is 10 bits wide, so a match may start at most
	// windowSize-1 bytes back.
	windowStart := pos - (windowSize - 1)
	if windowStart < 0 {
		windowStart = 0
	}
	// Reserve the final byte of input for the unit's mandatory literal.
	limit := len(data) - pos - 1
	if limit <= 0 {
		return 0, 0
	}
	bestLen, bestOffset := 0, 0
	for cand := windowStart; cand < pos; cand++ {
		l := 0
		for l < maxMatchLen && l < limit && data[cand+l] == data[pos+l] {
			l++
		}
		if l > bestLen {
			bestLen = l
			bestOffset = pos - cand
		}
	}
	if bestLen < minMatchLen {
		return 0, 0
	}
	return bestLen, bestOffset
}

// Decompress decodes a codec-LZ77 stream, failing with KindLZ77Format if a
// code names an offset outside the sliding window.
func Decompress(data []byte) ([]byte, error) {
	var out []byte
	for i := 0; i+3 <= len(data); i += 3 {
		code := uint16(data[i])<<8 | uint16(data[i+1])
		literal := data[i+2]
		length := int(code >> 10)
		offset := int(code & 0x3FF)
		if length > 0 {
			if offset == 0 || offset > windowSize || offset > len(out) {
				return nil, errf(KindLZ77Format, "match offset %d outside window", offset)
			}
			start := len(out) - offset
			for k := 0; k < length; k++ {
				out = append(out, out[start+k])
			}
		}
		out = append(out, literal)
	}
	return out, nil
}

// CompressedReader transparently decompresses an underlying stream so
// callers can treat it as an ordinary byte source.
type CompressedReader struct {
	*bytes.Reader
}

// NewCompressedReader reads and decompresses the whole of r up front.
func NewCompressedReader(r io.Reader) (*CompressedReader, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, wrapIO(KindIO, "read compressed stream", err)
	}
	plain, err := Decompress(raw)
	if err != nil {
		return nil, err
	}
	return &CompressedReader{bytes.NewReader(plain)}, nil
}

// WriteCompressed compresses data with the codec's LZ77 scheme and writes it
// to w in full.
func WriteCompressed(w io.Writer, data []byte) error {
	if _, err := w.Write(Compress(data)); err != nil {
		return wrapIO(KindIO, "write compressed stream", err)
	}
	return nil
}

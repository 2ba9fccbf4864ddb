package waveform

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// codec describes one wfdisc datatype. s/t codes are big-endian, i/f codes
// little-endian.
type codec struct {
	order binary.ByteOrder
	size  int
	float bool
}

var codecs = map[string]codec{
	"s2": {binary.BigEndian, 2, false},
	"s4": {binary.BigEndian, 4, false},
	"t4": {binary.BigEndian, 4, true},
	"t8": {binary.BigEndian, 8, true},
	"i2": {binary.LittleEndian, 2, false},
	"i4": {binary.LittleEndian, 4, false},
	"f4": {binary.LittleEndian, 4, true},
	"f8": {binary.LittleEndian, 8, true},
}

func lookupCodec(datatype string) (codec, error) {
	c, ok := codecs[datatype]
	if !ok {
		return codec{}, fmt.Errorf("waveform: unsupported datatype %q", datatype)
	}
	return c, nil
}

func (c codec) decode(b []byte) float64 {
	switch {
	case c.float && c.size == 4:
		return float64(math.Float32frombits(c.order.Uint32(b)))
	case c.float:
		return math.Float64frombits(c.order.Uint64(b))
	case c.size == 2:
		return float64(int16(c.order.Uint16(b)))
	}
	return float64(int32(c.order.Uint32(b)))
}

func (c codec) encode(b []byte, x float64) {
	switch {
	case c.float && c.size == 4:
		c.order.PutUint32(b, math.Float32bits(float32(x)))
	case c.float:
		c.order.PutUint64(b, math.Float64bits(x))
	case c.size == 2:
		c.order.PutUint16(b, uint16(int16(math.Round(x))))
	default:
		c.order.PutUint32(b, uint32(int32(math.Round(x))))
	}
}

// Encode renders samples in a wfdisc datatype. Integer types round.
func Encode(datatype string, data []float64) ([]byte, error) {
	c, err := lookupCodec(datatype)
	if err != nil {
		return nil, err
	}
	buf := make([]byte, len(data)*c.size)
	for i, x := range data {
		c.encode(buf[i*c.size:], x)
	}
	return buf, nil
}

// openSamples opens a sample file, decompressing .zst and .lz4 files.
func openSamples(path string) (io.Reader, func() error, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	switch filepath.Ext(path) {
	case ".zst":
		zr, err := zstd.NewReader(f)
		if err != nil {
			_ = f.Close()
			return nil, nil, err
		}
		return zr, func() error { zr.Close(); return f.Close() }, nil
	case ".lz4":
		return lz4.NewReader(f), f.Close, nil
	}
	return f, f.Close, nil
}

// readSamples decodes n samples of datatype starting at byte offset off.
func readSamples(path string, off int64, n int, datatype string) ([]float64, error) {
	c, err := lookupCodec(datatype)
	if err != nil {
		return nil, err
	}
	if n <= 0 {
		return []float64{}, nil
	}
	r, closeFn, err := openSamples(path)
	if err != nil {
		return nil, fmt.Errorf("waveform: open samples: %w", err)
	}
	defer closeFn()

	if s, ok := r.(io.Seeker); ok {
		_, err = s.Seek(off, io.SeekStart)
	} else {
		_, err = io.CopyN(io.Discard, r, off)
	}
	if err != nil {
		return nil, fmt.Errorf("waveform: %s: skip to offset %d: %w", path, off, err)
	}

	buf := make([]byte, n*c.size)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, fmt.Errorf("waveform: %s: read %d samples at offset %d: %w", path, n, off, err)
	}
	out := make([]float64, n)
	for i := range out {
		out[i] = c.decode(buf[i*c.size:])
	}
	return out, nil
}

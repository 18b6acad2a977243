// Package archive implements the little-endian binary archives that stockroom containers and
// component codecs are written with.
//
// A Writer and a Reader mirror each other: every WriteX has a ReadX that consumes exactly the
// bytes WriteX produced. Fixed-size values (integers, floats, arrays and structs made of them)
// go through Write/Read and WriteSlice/ReadSlice; variable-size data is framed with WriteBytes.
//
// Every failure returned by this package, whether the underlying stream failed or the data is
// malformed, satisfies errors.Is(err, ErrArchive). Truncated input additionally satisfies
// errors.Is(err, io.ErrUnexpectedEOF).
package archive

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/rotisserie/eris"
)

// ErrArchive marks every error produced while reading or writing an archive.
var ErrArchive = eris.New("archive error")

// chunkLen bounds how many elements are allocated ahead of the data actually read, so a
// corrupt length prefix cannot force a huge allocation.
const chunkLen = 4096

// Error describes an archive failure at a byte offset.
type Error struct {
	Op     string
	Offset int64
	Err    error
}

func (e *Error) Error() string {
	return fmt.Sprintf("archive %s at offset %d: %v", e.Op, e.Offset, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) Is(target error) bool {
	return target == ErrArchive
}

// Corruptf reports structurally invalid data found at offset.
func Corruptf(offset int64, format string, args ...any) error {
	return &Error{Op: "decode", Offset: offset, Err: eris.Errorf(format, args...)}
}

// Writer is the binary output archive.
type Writer struct {
	w   io.Writer
	n   int64
	buf [8]byte
}

func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

// Written returns the number of bytes written so far.
func (w *Writer) Written() int64 {
	return w.n
}

func (w *Writer) write(p []byte) error {
	n, err := w.w.Write(p)
	w.n += int64(n)
	if err != nil {
		return &Error{Op: "write", Offset: w.n, Err: err}
	}
	return nil
}

func (w *Writer) WriteUint64(v uint64) error {
	binary.LittleEndian.PutUint64(w.buf[:], v)
	return w.write(w.buf[:8])
}

func (w *Writer) WriteUint32(v uint32) error {
	binary.LittleEndian.PutUint32(w.buf[:4], v)
	return w.write(w.buf[:4])
}

// WriteBytes writes a u64 length prefix followed by b.
func (w *Writer) WriteBytes(b []byte) error {
	if err := w.WriteUint64(uint64(len(b))); err != nil {
		return err
	}
	return w.write(b)
}

func (w *Writer) WriteString(s string) error {
	return w.WriteBytes([]byte(s))
}

// Write encodes a fixed-size value.
func Write[T any](w *Writer, v T) error {
	return WriteSlice(w, []T{v})
}

// WriteSlice encodes the elements of vs back to back without a length prefix.
func WriteSlice[T any](w *Writer, vs []T) error {
	if len(vs) == 0 {
		return nil
	}
	size := binary.Size(vs)
	if size < 0 {
		var zero T
		return &Error{Op: "write", Offset: w.n, Err: eris.Errorf("%T is not fixed-size", zero)}
	}
	if err := binary.Write(w.w, binary.LittleEndian, vs); err != nil {
		return &Error{Op: "write", Offset: w.n, Err: err}
	}
	w.n += int64(size)
	return nil
}

// Reader is the binary input archive.
type Reader struct {
	r   io.Reader
	n   int64
	buf [8]byte
}

func NewReader(r io.Reader) *Reader {
	return &Reader{r: r}
}

// Offset returns the number of bytes consumed so far.
func (r *Reader) Offset() int64 {
	return r.n
}

func (r *Reader) read(p []byte) error {
	n, err := io.ReadFull(r.r, p)
	r.n += int64(n)
	if err != nil {
		if errors.Is(err, io.EOF) {
			err = io.ErrUnexpectedEOF
		}
		return &Error{Op: "read", Offset: r.n, Err: err}
	}
	return nil
}

func (r *Reader) ReadUint64() (uint64, error) {
	if err := r.read(r.buf[:8]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(r.buf[:8]), nil
}

func (r *Reader) ReadUint32() (uint32, error) {
	if err := r.read(r.buf[:4]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(r.buf[:4]), nil
}

// ReadBytes reads a u64 length prefix and that many bytes.
func (r *Reader) ReadBytes() ([]byte, error) {
	n, err := r.ReadUint64()
	if err != nil {
		return nil, err
	}
	out := make([]byte, 0, min(n, chunkLen))
	for remaining := n; remaining > 0; {
		step := min(remaining, chunkLen)
		start := len(out)
		out = append(out, make([]byte, step)...)
		if err := r.read(out[start:]); err != nil {
			return nil, err
		}
		remaining -= step
	}
	return out, nil
}

func (r *Reader) ReadString() (string, error) {
	b, err := r.ReadBytes()
	return string(b), err
}

// Read decodes one fixed-size value.
func Read[T any](r *Reader) (T, error) {
	vs, err := ReadSlice[T](r, 1)
	if err != nil {
		var zero T
		return zero, err
	}
	return vs[0], nil
}

// ReadSlice decodes n fixed-size values written by WriteSlice.
func ReadSlice[T any](r *Reader, n uint64) ([]T, error) {
	var zero T
	size := binary.Size(zero)
	if size < 0 {
		return nil, &Error{Op: "read", Offset: r.n, Err: eris.Errorf("%T is not fixed-size", zero)}
	}
	out := make([]T, 0, min(n, chunkLen))
	for remaining := n; remaining > 0; {
		step := min(remaining, chunkLen)
		chunk := make([]T, step)
		if size > 0 {
			buf := make([]byte, int(step)*size)
			if err := r.read(buf); err != nil {
				return nil, err
			}
			if _, err := binary.Decode(buf, binary.LittleEndian, chunk); err != nil {
				return nil, &Error{Op: "decode", Offset: r.n, Err: err}
			}
		}
		out = append(out, chunk...)
		remaining -= step
	}
	return out, nil
}

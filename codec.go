package stockroom

import (
	"encoding/binary"

	"github.com/goccy/go-json"
	"github.com/rotisserie/eris"

	"github.com/TheBitDrifter/stockroom/archive"
)

// Codec writes and reads the dense component payload of a container. Decode must return
// exactly n values.
type Codec[T any] interface {
	Encode(w *archive.Writer, values []T) error
	Decode(r *archive.Reader, n uint64) ([]T, error)
}

type validator interface {
	validate() error
}

type binaryCodec[T any] struct{}

// BinaryCodec encodes fixed-size components (numbers, bools, arrays and structs of them)
// as packed little-endian values.
func BinaryCodec[T any]() Codec[T] {
	return binaryCodec[T]{}
}

func (binaryCodec[T]) Encode(w *archive.Writer, values []T) error {
	return archive.WriteSlice(w, values)
}

func (binaryCodec[T]) Decode(r *archive.Reader, n uint64) ([]T, error) {
	return archive.ReadSlice[T](r, n)
}

func (binaryCodec[T]) validate() error {
	var zero T
	if binary.Size(zero) < 0 {
		return eris.Errorf("%T is not fixed-size, use JSONCodec or CodecFuncs", zero)
	}
	return nil
}

type jsonCodec[T any] struct{}

// JSONCodec encodes each component as a length-prefixed JSON document. It suits compound
// components holding strings, slices or maps.
func JSONCodec[T any]() Codec[T] {
	return jsonCodec[T]{}
}

func (jsonCodec[T]) Encode(w *archive.Writer, values []T) error {
	for i := range values {
		bz, err := json.Marshal(&values[i])
		if err != nil {
			return eris.Wrapf(err, "failed to encode component at index %d", i)
		}
		if err := w.WriteBytes(bz); err != nil {
			return err
		}
	}
	return nil
}

func (jsonCodec[T]) Decode(r *archive.Reader, n uint64) ([]T, error) {
	values := make([]T, 0, min(n, 1024))
	for i := uint64(0); i < n; i++ {
		bz, err := r.ReadBytes()
		if err != nil {
			return nil, err
		}
		var v T
		if err := json.Unmarshal(bz, &v); err != nil {
			return nil, archive.Corruptf(r.Offset(), "failed to decode component at index %d: %v", i, err)
		}
		values = append(values, v)
	}
	return values, nil
}

// CodecFuncs adapts a pair of hand-written functions to Codec.
type CodecFuncs[T any] struct {
	EncodeFunc func(w *archive.Writer, values []T) error
	DecodeFunc func(r *archive.Reader, n uint64) ([]T, error)
}

func (c CodecFuncs[T]) Encode(w *archive.Writer, values []T) error {
	return c.EncodeFunc(w, values)
}

func (c CodecFuncs[T]) Decode(r *archive.Reader, n uint64) ([]T, error) {
	return c.DecodeFunc(r, n)
}

func (c CodecFuncs[T]) validate() error {
	if c.EncodeFunc == nil || c.DecodeFunc == nil {
		return eris.New("codec funcs must set both EncodeFunc and DecodeFunc")
	}
	return nil
}

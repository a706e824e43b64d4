package codec

import (
	"fmt"

	"github.com/luxfi/adkg/pkg/math/curve"
)

// Fixed wire widths from spec.md §4.2.
const (
	GroupElementSize = 33 // g_size, compressed secp256k1 point
	FieldElementSize = 32 // f_size
)

// SerializeScalars concatenates the fixed-width encoding of each scalar.
func SerializeScalars(scalars []curve.Scalar) ([]byte, error) {
	out := make([]byte, 0, len(scalars)*FieldElementSize)
	for _, s := range scalars {
		b, err := s.MarshalBinary()
		if err != nil {
			return nil, err
		}
		out = append(out, b...)
	}
	return out, nil
}

// DeserializeScalars splits data into FieldElementSize chunks and decodes
// each one.
func DeserializeScalars(data []byte) ([]curve.Scalar, error) {
	if len(data)%FieldElementSize != 0 {
		return nil, fmt.Errorf("codec: scalar batch length %d not a multiple of %d", len(data), FieldElementSize)
	}
	n := len(data) / FieldElementSize
	out := make([]curve.Scalar, n)
	for i := 0; i < n; i++ {
		if err := (&out[i]).UnmarshalBinary(data[i*FieldElementSize : (i+1)*FieldElementSize]); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// SerializePoints concatenates the fixed-width encoding of each point.
func SerializePoints(points []curve.Point) ([]byte, error) {
	out := make([]byte, 0, len(points)*GroupElementSize)
	for _, p := range points {
		b, err := p.MarshalBinary()
		if err != nil {
			return nil, err
		}
		out = append(out, b...)
	}
	return out, nil
}

// DeserializePoints splits data into GroupElementSize chunks and decodes
// each one.
func DeserializePoints(data []byte) ([]curve.Point, error) {
	if len(data)%GroupElementSize != 0 {
		return nil, fmt.Errorf("codec: point batch length %d not a multiple of %d", len(data), GroupElementSize)
	}
	n := len(data) / GroupElementSize
	out := make([]curve.Point, n)
	for i := 0; i < n; i++ {
		if err := (&out[i]).UnmarshalBinary(data[i*GroupElementSize : (i+1)*GroupElementSize]); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// NNUE common constants and binary helpers.

package xqnnue

import (
	"encoding/binary"
	"io"
)

// Version of the evaluation file
const Version uint32 = 0x7AF32F20

// MaxDescriptionSize bounds the network description read from a file header.
const MaxDescriptionSize = 1 << 16

// ReadLittleEndian reads an integer from a stream in little-endian order
func ReadLittleEndian[T int8 | uint8 | int16 | uint16 | int32 | uint32](r io.Reader) (T, error) {
	var result T
	err := binary.Read(r, binary.LittleEndian, &result)
	return result, err
}

// WriteLittleEndian writes an integer to a stream in little-endian order
func WriteLittleEndian[T int8 | uint8 | int16 | uint16 | int32 | uint32](w io.Writer, value T) error {
	return binary.Write(w, binary.LittleEndian, value)
}

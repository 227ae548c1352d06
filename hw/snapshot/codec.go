package snapshot

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// ErrCorruptState is returned when a state stream doesn't hold exactly one
// complete machine state.
var ErrCorruptState = errors.New("corrupt state")

// Size is the size in bytes of an encoded Machine.
var Size = binary.Size(Machine{})

// Encode writes the state in its fixed little-endian layout. Booleans take
// one byte.
func Encode(w io.Writer, m *Machine) error {
	return binary.Write(w, binary.LittleEndian, m)
}

// Decode reads a complete state from r. A short read is reported as
// ErrCorruptState and m is left untouched.
func Decode(r io.Reader, m *Machine) error {
	var tmp Machine
	if err := binary.Read(r, binary.LittleEndian, &tmp); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return fmt.Errorf("%w: short read", ErrCorruptState)
		}
		return err
	}
	*m = tmp
	return nil
}

// DecodeAll is like Decode but also rejects trailing data.
func DecodeAll(r io.Reader, m *Machine) error {
	var tmp Machine
	if err := Decode(r, &tmp); err != nil {
		return err
	}
	var extra [1]byte
	if n, _ := io.ReadFull(r, extra[:]); n != 0 {
		return fmt.Errorf("%w: trailing data", ErrCorruptState)
	}
	*m = tmp
	return nil
}

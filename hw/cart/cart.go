// Package cart loads cartridge images. Images are raw dumps of the program
// ROM, the last 16KB bank is fixed at $C000-$FFFF and holds the interrupt
// vectors.
package cart

import (
	"errors"
	"fmt"
	"io"
	"os"
)

const (
	BankSize = 0x4000

	// Images larger than this need the extended bank switching scheme.
	MaxNormalSize = 0x20000
)

// ErrInvalidImage is returned for images whose size is not a positive
// multiple of 16KB.
var ErrInvalidImage = errors.New("invalid cartridge image")

// Validate checks that size is a valid image size.
func Validate(size int) error {
	if size <= 0 || size%BankSize != 0 {
		return fmt.Errorf("%w: size %d is not a positive multiple of %d", ErrInvalidImage, size, BankSize)
	}
	return nil
}

// IsExtended reports whether an image of the given size uses the extended
// bank switching scheme.
func IsExtended(size int) bool {
	return size > MaxNormalSize
}

type Image struct {
	Path string
	ROM  []byte
}

// Open loads an image from file.
func Open(path string) (*Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img := &Image{Path: path}
	if _, err := img.ReadFrom(f); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return img, nil
}

// ReadFrom implements io.ReaderFrom interface
func (img *Image) ReadFrom(r io.Reader) (int64, error) {
	buf, err := io.ReadAll(r)
	if err != nil {
		return 0, err
	}
	if err := Validate(len(buf)); err != nil {
		return int64(len(buf)), err
	}
	img.ROM = buf
	return int64(len(buf)), nil
}

// Infos describes an image.
type Infos struct {
	Size     int
	Banks    int
	Extended bool

	NMIVector   uint16
	ResetVector uint16
	IRQVector   uint16
}

// Infos returns informations about the image. Vectors are read in the fixed
// upper bank, as the CPU sees them after reset.
func (img *Image) Infos() Infos {
	size := len(img.ROM)
	fixed := img.ROM[size-BankSize:]
	vec := func(addr uint16) uint16 {
		off := addr & (BankSize - 1)
		return uint16(fixed[off]) | uint16(fixed[off+1])<<8
	}

	return Infos{
		Size:        size,
		Banks:       size / BankSize,
		Extended:    IsExtended(size),
		NMIVector:   vec(0xFFFA),
		ResetVector: vec(0xFFFC),
		IRQVector:   vec(0xFFFE),
	}
}

func (inf Infos) String() string {
	kind := "normal"
	if inf.Extended {
		kind = "extended"
	}
	return fmt.Sprintf("%dKB (%d banks, %s) reset=$%04X nmi=$%04X irq=$%04X",
		inf.Size/1024, inf.Banks, kind, inf.ResetVector, inf.NMIVector, inf.IRQVector)
}

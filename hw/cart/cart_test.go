package cart

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate(t *testing.T) {
	for size := BankSize; size <= 512*1024; size += BankSize {
		assert.NoError(t, Validate(size), "size %d", size)
	}
	for _, size := range []int{-BankSize, 0, 1, BankSize - 1, BankSize + 1, 3 * 1024 * 10} {
		err := Validate(size)
		assert.True(t, errors.Is(err, ErrInvalidImage), "size %d: %v", size, err)
	}
}

func TestIsExtended(t *testing.T) {
	assert.False(t, IsExtended(32*1024))
	assert.False(t, IsExtended(128*1024))
	assert.True(t, IsExtended(128*1024+BankSize))
	assert.True(t, IsExtended(512*1024))
}

func testROM(banks int) []byte {
	rom := make([]byte, banks*BankSize)
	last := len(rom) - BankSize
	copy(rom[last+0x3FFA:], []byte{0x00, 0xE1, 0x00, 0xE0, 0x00, 0xE2})
	return rom
}

func TestReadFrom(t *testing.T) {
	var img Image
	n, err := img.ReadFrom(bytes.NewReader(testROM(2)))
	require.NoError(t, err)
	assert.EqualValues(t, 2*BankSize, n)

	inf := img.Infos()
	assert.Equal(t, Infos{
		Size:        2 * BankSize,
		Banks:       2,
		NMIVector:   0xE100,
		ResetVector: 0xE000,
		IRQVector:   0xE200,
	}, inf)
	assert.Contains(t, inf.String(), "reset=$E000")

	_, err = img.ReadFrom(bytes.NewReader(make([]byte, 100)))
	assert.ErrorIs(t, err, ErrInvalidImage)
}

func TestOpen(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "game.sv")
	require.NoError(t, os.WriteFile(path, testROM(16), 0o644))

	img, err := Open(path)
	require.NoError(t, err)
	assert.Equal(t, 16, img.Infos().Banks)
	assert.False(t, img.Infos().Extended)

	_, err = Open(filepath.Join(dir, "missing.sv"))
	assert.Error(t, err)
}

package hw

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"svision/emu/log"
	"svision/hw/snapshot"
)

// StateFileExt is the extension of numbered state files.
const StateFileExt = ".svst"

// ErrStateIO is returned when a state file can't be opened or written.
var ErrStateIO = errors.New("state file i/o error")

// State returns a snapshot of the machine state.
func (m *Machine) State() *snapshot.Machine {
	var st snapshot.Machine
	m.mem.State(&st.Mem)
	m.mem.Sound().State(&st.Sound)
	m.mem.Timer().State(&st.Timer)
	st.CPU = m.cpu.Registers()
	st.IRQ = m.irq
	return &st
}

// SetState restores the machine from a snapshot. The ghosting history isn't
// part of the state and is left as is.
func (m *Machine) SetState(st *snapshot.Machine) error {
	if !m.mem.Loaded() {
		return ErrNoCartridge
	}
	if err := m.mem.SetState(&st.Mem); err != nil {
		return fmt.Errorf("%w: %w", ErrCorruptState, err)
	}
	m.mem.Sound().SetState(&st.Sound)
	m.mem.Timer().SetState(&st.Timer)
	m.cpu.SetRegisters(st.CPU)
	m.irq = st.IRQ
	return nil
}

// SaveState writes the machine state to w.
func (m *Machine) SaveState(w io.Writer) error {
	return snapshot.Encode(w, m.State())
}

// LoadState reads a machine state from r. If r doesn't provide a complete
// state, ErrCorruptState is returned and the machine is unchanged.
func (m *Machine) LoadState(r io.Reader) error {
	if !m.mem.Loaded() {
		return ErrNoCartridge
	}

	var st snapshot.Machine
	if err := snapshot.Decode(r, &st); err != nil {
		return err
	}
	return m.SetState(&st)
}

// StatePath returns the path of the state file for slot id. A negative id
// means path is the state file itself.
func StatePath(path string, id int) string {
	if id < 0 {
		return path
	}
	return path + strconv.Itoa(id) + StateFileExt
}

// SaveStateFile writes the machine state to the state file for slot id, see
// StatePath.
func (m *Machine) SaveStateFile(path string, id int) error {
	path = StatePath(path, id)

	var buf bytes.Buffer
	buf.Grow(snapshot.Size)
	if err := m.SaveState(&buf); err != nil {
		return err
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("%w: %w", ErrStateIO, err)
	}

	log.ModEmu.DebugZ("state saved").String("path", path).End()
	return nil
}

// LoadStateFile restores the machine from the state file for slot id, see
// StatePath. The file must hold exactly one state.
func (m *Machine) LoadStateFile(path string, id int) error {
	if !m.mem.Loaded() {
		return ErrNoCartridge
	}

	path = StatePath(path, id)
	buf, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrStateIO, err)
	}

	var st snapshot.Machine
	if err := snapshot.DecodeAll(bytes.NewReader(buf), &st); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	if err := m.SetState(&st); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}

	log.ModEmu.DebugZ("state loaded").String("path", path).End()
	return nil
}

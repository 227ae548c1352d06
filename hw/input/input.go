// Package input describes the state of the console buttons, as read by the
// CPU through the controls register.
package input

import (
	"fmt"
	"strings"
)

// A Button identifies a console button. Its value is its bit position in the
// controls byte.
type Button byte

const (
	Right Button = iota
	Left
	Down
	Up
	B
	A
	Select
	Start

	ButtonCount
)

func (b Button) String() string {
	var buttonNames = [ButtonCount]string{
		"Right", "Left", "Down", "Up",
		"B", "A",
		"Select", "Start",
	}
	if b >= ButtonCount {
		return fmt.Sprintf("Button(%d)", b)
	}
	return buttonNames[b]
}

func ButtonByName(name string) (Button, bool) {
	for b := range ButtonCount {
		if strings.EqualFold(b.String(), name) {
			return b, true
		}
	}
	return 0, false
}

// State is the set of pressed buttons, 1 bit per button.
type State uint8

func (s State) Pressed(b Button) bool { return s&(1<<b) != 0 }

func (s *State) Press(b Button)   { *s |= 1 << b }
func (s *State) Release(b Button) { *s &^= 1 << b }

// Buttons returns the list of pressed buttons.
func (s State) Buttons() []Button {
	var bs []Button
	for b := range ButtonCount {
		if s.Pressed(b) {
			bs = append(bs, b)
		}
	}
	return bs
}

// MarshalText encodes the state as a '+' separated list of button names,
// e.g "A+Start".
func (s State) MarshalText() ([]byte, error) {
	var names []string
	for _, b := range s.Buttons() {
		names = append(names, b.String())
	}
	return []byte(strings.Join(names, "+")), nil
}

func (s *State) UnmarshalText(text []byte) error {
	var st State
	str := strings.TrimSpace(string(text))
	if str == "" {
		*s = 0
		return nil
	}
	for _, name := range strings.Split(str, "+") {
		b, ok := ButtonByName(strings.TrimSpace(name))
		if !ok {
			return fmt.Errorf("unknown button %q", name)
		}
		st.Press(b)
	}
	*s = st
	return nil
}

func (s State) String() string {
	text, _ := s.MarshalText()
	if len(text) == 0 {
		return "none"
	}
	return string(text)
}

package input

import (
	"fmt"
	"slices"

	"github.com/go-faster/jx"
)

// An Event sets the buttons state at the beginning of a frame.
type Event struct {
	Frame   int   `toml:"frame"`
	Buttons State `toml:"buttons"`
}

// Script replays button states. The state set by an event holds until the
// next one.
type Script struct {
	Events []Event `toml:"events"`
}

// Validate sorts the events by frame and rejects duplicated frames.
func (s *Script) Validate() error {
	slices.SortStableFunc(s.Events, func(a, b Event) int { return a.Frame - b.Frame })
	for i := range s.Events {
		if s.Events[i].Frame < 0 {
			return fmt.Errorf("event %d: negative frame %d", i, s.Events[i].Frame)
		}
		if i > 0 && s.Events[i].Frame == s.Events[i-1].Frame {
			return fmt.Errorf("duplicated events for frame %d", s.Events[i].Frame)
		}
	}
	return nil
}

// At returns the buttons state for the given frame. Events must be sorted.
func (s *Script) At(frame int) State {
	idx, found := slices.BinarySearchFunc(s.Events, frame, func(e Event, f int) int { return e.Frame - f })
	if found {
		return s.Events[idx].Buttons
	}
	if idx == 0 {
		return 0
	}
	return s.Events[idx-1].Buttons
}

// Encode writes the script as JSON:
//
//	{"events":[{"frame":10,"buttons":"A+Start"}]}
func (s *Script) Encode(e *jx.Encoder) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("events", func(e *jx.Encoder) {
			e.Arr(func(e *jx.Encoder) {
				for _, ev := range s.Events {
					e.Obj(func(e *jx.Encoder) {
						e.Field("frame", func(e *jx.Encoder) { e.Int(ev.Frame) })
						e.Field("buttons", func(e *jx.Encoder) {
							text, _ := ev.Buttons.MarshalText()
							e.Str(string(text))
						})
					})
				}
			})
		})
	})
}

// Decode reads a JSON script, as written by Encode. The button state can
// either be a '+' separated list of names or the raw controls byte.
func (s *Script) Decode(d *jx.Decoder) error {
	s.Events = s.Events[:0]
	err := d.Obj(func(d *jx.Decoder, key string) error {
		if key != "events" {
			return d.Skip()
		}
		return d.Arr(func(d *jx.Decoder) error {
			var ev Event
			err := d.Obj(func(d *jx.Decoder, key string) error {
				switch key {
				case "frame":
					f, err := d.Int()
					ev.Frame = f
					return err
				case "buttons":
					return decodeState(d, &ev.Buttons)
				}
				return d.Skip()
			})
			if err != nil {
				return err
			}
			s.Events = append(s.Events, ev)
			return nil
		})
	})
	if err != nil {
		return fmt.Errorf("input script: %w", err)
	}
	return s.Validate()
}

func decodeState(d *jx.Decoder, st *State) error {
	switch d.Next() {
	case jx.Number:
		v, err := d.UInt8()
		*st = State(v)
		return err
	case jx.String:
		str, err := d.Str()
		if err != nil {
			return err
		}
		return st.UnmarshalText([]byte(str))
	}
	return fmt.Errorf("unexpected %s for buttons", d.Next())
}

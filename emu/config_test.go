package emu

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"svision/hw/gpu"
	"svision/hw/input"
)

func TestLoadConfig(t *testing.T) {
	const data = `
[video]
color_scheme = "amber"
ghosting = 12

[audio]
sample_rate = 22050

[general]
frames = 120

[[input.events]]
frame = 30
buttons = "A"

[[input.events]]
frame = 10
buttons = "Start+Select"
`
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatal(err)
	}

	want := DefaultConfig()
	want.Video = VideoConfig{ColorScheme: "amber", Ghosting: gpu.MaxGhosting}
	want.Audio.SampleRate = 22050
	want.General.Frames = 120
	want.Input.Events = []input.Event{
		{Frame: 10, Buttons: 1<<input.Start | 1<<input.Select},
		{Frame: 30, Buttons: 1 << input.A},
	}
	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Errorf("config mismatch (-want +got):\n%s", diff)
	}
	if got := cfg.Video.Scheme(); got != gpu.SchemeAmber {
		t.Errorf("Scheme() = %v, want %v", got, gpu.SchemeAmber)
	}
}

func TestLoadConfigErrors(t *testing.T) {
	dir := t.TempDir()

	bad := filepath.Join(dir, "bad.toml")
	os.WriteFile(bad, []byte("[[input.events]]\nframe = 1\nbuttons = \"Turbo\"\n"), 0o644)
	if _, err := LoadConfig(bad); err == nil {
		t.Errorf("LoadConfig should reject unknown buttons")
	}

	dup := filepath.Join(dir, "dup.toml")
	os.WriteFile(dup, []byte("[[input.events]]\nframe = 1\n[[input.events]]\nframe = 1\n"), 0o644)
	if _, err := LoadConfig(dup); err == nil {
		t.Errorf("LoadConfig should reject duplicated frames")
	}

	cfg, err := LoadConfigOrDefault(filepath.Join(dir, "missing.toml"))
	if err != nil {
		t.Fatal(err)
	}
	want := DefaultConfig()
	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Errorf("default config mismatch (-want +got):\n%s", diff)
	}
}

func TestSaveConfigRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "config.toml")

	cfg := DefaultConfig()
	cfg.Video.ColorScheme = "bgb"
	cfg.Audio.Disabled = true
	cfg.Input.Events = []input.Event{{Frame: 3, Buttons: 1 << input.Up}}
	if err := SaveConfig(cfg, path); err != nil {
		t.Fatal(err)
	}

	got, err := LoadConfig(path)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(cfg, got); diff != "" {
		t.Errorf("config round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestUnknownScheme(t *testing.T) {
	vcfg := VideoConfig{ColorScheme: "purple"}
	if got := vcfg.Scheme(); got != gpu.SchemeDefault {
		t.Errorf("Scheme() = %v, want default", got)
	}
}

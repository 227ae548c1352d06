package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alecthomas/kong"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"svision/emu"
)

func TestParseArgs(t *testing.T) {
	rom := filepath.Join(t.TempDir(), "game.sv")
	require.NoError(t, os.WriteFile(rom, make([]byte, 0x8000), 0o644))

	cli := parseArgs([]string{"run", rom, "--frames", "30", "--ghosting", "2", "--state-id", "3"})
	assert.Equal(t, runMode, cli.mode)
	assert.Equal(t, rom, cli.Run.RomPath)
	assert.Equal(t, 30, cli.Run.Frames)
	require.NotNil(t, cli.Run.Ghosting)
	assert.Equal(t, 2, *cli.Run.Ghosting)
	assert.Equal(t, 3, cli.Run.StateID)

	cli = parseArgs([]string{"run", rom})
	assert.Nil(t, cli.Run.Ghosting)
	assert.Equal(t, -1, cli.Run.StateID)

	cli = parseArgs([]string{"rom-infos", rom, "--json"})
	assert.Equal(t, romInfosMode, cli.mode)
	assert.True(t, cli.RomInfos.JSON)

	cli = parseArgs([]string{"version"})
	assert.Equal(t, versionMode, cli.mode)
}

func TestRunHelpMentionsHaltedCPU(t *testing.T) {
	var (
		cfg    CLI
		out    bytes.Buffer
		exited bool
	)
	parser := newParser(&cfg, kong.Writers(&out, &out), kong.Exit(func(int) { exited = true }))
	_, _ = parser.Parse([]string{"--help"})

	require.True(t, exited)
	help := strings.Join(strings.Fields(out.String()), " ")
	assert.Contains(t, help, "the CPU stays halted")
}

func TestStatePath(t *testing.T) {
	cfg := emu.DefaultConfig()
	assert.Equal(t, "", statePath(cfg, "", 2))
	assert.Equal(t, "game.svst", statePath(cfg, "game.svst", -1))
	assert.Equal(t, "game2.svst", statePath(cfg, "game", 2))

	cfg.General.StateDir = "/states"
	assert.Equal(t, filepath.Join("/states", "game2.svst"), statePath(cfg, "game", 2))
	assert.Equal(t, "/abs/game", statePath(cfg, "/abs/game", -1))
}

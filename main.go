package main

import (
	"os"

	"svision/emu"
)

func main() {
	cli := parseArgs(os.Args[1:])

	switch cli.mode {
	case romInfosMode:
		romInfosMain(cli.RomInfos)
		return
	case stateInfosMode:
		stateInfosMain(cli.StateInfos)
		return
	case versionMode:
		versionMain()
		return
	}

	cfg, err := emu.LoadConfigOrDefault(cli.Config)
	checkf(err, "failed to load configuration")
	runMain(cli.Run, cfg)
}

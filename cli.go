package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/alecthomas/kong"

	"svision/emu/log"
	"svision/hw/gpu"
)

type mode byte

const (
	runMode        mode = iota // Run a ROM headlessly
	romInfosMode               // Show ROM infos
	stateInfosMode             // Show state file infos
	versionMode                // Show version
)

type (
	CLI struct {
		Run        Run        `cmd:"" help:"${run_help}"`
		RomInfos   RomInfos   `cmd:"" help:"Show ROM infos." name:"rom-infos"`
		StateInfos StateInfos `cmd:"" help:"Show state file infos." name:"state-infos"`
		Version    Version    `cmd:"" help:"Show svision version."`

		Log    logModMask `help:"${log_help}" placeholder:"mod0,mod1,..."`
		Config string     `help:"Configuration file." type:"path" placeholder:"FILE"`

		mode mode
	}

	Run struct {
		RomPath string `arg:"" name:"/path/to/rom" help:"${rompath_help}" required:"true" type:"existingfile"`

		Frames    int    `name:"frames" help:"Number of frames to run (default from config)."`
		WAV       string `name:"wav" help:"Write audio to a WAV file." type:"path" placeholder:"FILE"`
		FramesOut string `name:"frames-out" help:"${frames_out_help}" type:"path" placeholder:"FILE"`
		LoadState string `name:"load-state" help:"Start from a state file." type:"path" placeholder:"PATH"`
		SaveState string `name:"save-state" help:"Write a state file at the end of the run." type:"path" placeholder:"PATH"`
		StateID   int    `name:"state-id" help:"${state_id_help}" default:"-1"`
		Color     string `name:"color" help:"Color scheme (${schemes})." placeholder:"SCHEME"`
		Ghosting  *int   `name:"ghosting" help:"Number of ghosting frames, 0 to 8."`
		Input     string `name:"input" help:"JSON input script." type:"existingfile" placeholder:"FILE"`

		CPUProfile string `name:"cpuprofile" help:"${cpuprofile_help}" type:"path"`
	}

	RomInfos struct {
		RomPath string `arg:"" name:"/path/to/rom" type:"existingfile"`
		JSON    bool   `name:"json" help:"Output JSON."`
	}

	StateInfos struct {
		StatePath string `arg:"" name:"/path/to/state" type:"existingfile"`
		JSON      bool   `name:"json" help:"Output JSON."`
	}

	Version struct{}
)

var vars = kong.Vars{
	"run_help":        "Run ROM headlessly. No CPU interpreter is built in, the CPU stays halted and only video, timer and sound run.",
	"rompath_help":    "ROM image to run.",
	"frames_out_help": "Write raw frames (160x160 little-endian RGB555) to file.",
	"state_id_help":   "State slot, when set state paths are prefixes of {path}{id}.svst files.",
	"cpuprofile_help": "Write CPU profile to file.",
	"log_help":        "Enable logging for specified modules.",
	"schemes":         strings.Join(schemeNames(), ", "),
}

func schemeNames() []string {
	var names []string
	for cs := range gpu.SchemeCount {
		names = append(names, cs.String())
	}
	return names
}

func newParser(cfg *CLI, opts ...kong.Option) *kong.Kong {
	opts = append([]kong.Option{
		kong.Name("svision"),
		kong.Description("Supervision handheld emulator."),
		kong.UsageOnError(),
		kong.Help(printHelp),
		vars,
	}, opts...)

	parser, err := kong.New(cfg, opts...)
	if err != nil {
		panic(err)
	}
	return parser
}

func parseArgs(args []string) CLI {
	var cfg CLI
	parser := newParser(&cfg)

	ctx, err := parser.Parse(args)
	checkf(err, "failed to parse command line")
	checkf(ctx.Error, "failed to parse command line")

	switch ctx.Command() {
	case "rom-infos </path/to/rom>":
		cfg.mode = romInfosMode
	case "state-infos </path/to/state>":
		cfg.mode = stateInfosMode
	case "version":
		cfg.mode = versionMode
	default:
		cfg.mode = runMode
	}
	return cfg
}

func printHelp(options kong.HelpOptions, ctx *kong.Context) error {
	if err := kong.DefaultHelpPrinter(options, ctx); err != nil {
		return err
	}
	if strings.HasPrefix(ctx.Command(), "run") {
		loggingHelp := `
Log modules:
  The --log flag accepts a comma-separated list of modules.

  Valid log modules are:
%s

  As a special case, the following values are accepted:
    - no                     Disable all logging.
    - all                    Enable all logs.
`
		var strs []string
		for _, m := range log.ModuleNames() {
			strs = append(strs, "    - "+m)
		}

		fmt.Fprintf(os.Stderr, loggingHelp, strings.Join(strs, "\n"))
	}

	return nil
}

type logModMask log.ModuleMask

// Decode decodes a comma-separated list of module names into a module mask.
//
// Implements kong.MapperValue interface.
func (lm logModMask) Decode(ctx *kong.DecodeContext) error {
	nolog := false
	allLogs := false

	tok := ctx.Scan.Pop()
	for _, v := range strings.Split(tok.Value.(string), ",") {
		switch v {
		case "all":
			allLogs = true
		case "no":
			nolog = true
		default:
			mod, ok := log.ModuleByName(v)
			if !ok {
				return fmt.Errorf("unknown log module %s", v)
			}
			lm |= logModMask(mod.Mask())
		}
	}

	if nolog {
		if allLogs {
			return fmt.Errorf("cannot use 'all' and 'no' together")
		}
		if lm != 0 {
			return fmt.Errorf("cannot combine 'no' with other log modules")
		}
		log.Disable()
		return nil
	}

	if allLogs {
		lm = logModMask(log.ModuleMaskAll)
	}

	log.EnableDebugModules(log.ModuleMask(lm))
	return nil
}

func checkf(err error, format string, args ...any) {
	if err == nil {
		return
	}
	fatalf("%s.\n%s", fmt.Sprintf(format, args...), err)
}

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "fatal error:")
	fmt.Fprintf(os.Stderr, "\n\t%s\n", fmt.Sprintf(format, args...))
	os.Exit(1)
}

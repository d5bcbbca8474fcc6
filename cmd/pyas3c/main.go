// Command pyas3c compiles Python-syntax source files into ActionScript
// bytecode packaged inside a Flash SWF container (§6.4). With no
// subcommand it behaves as `compile`: every argument is a source file,
// compiled together into a single SWF. `pyas3c build` additionally
// resolves an import graph across a whole source tree via internal/
// builddriver before compiling, optionally rendering live per-file status
// through internal/watchui.
//
// Grounded on raymyers/ralph-cc's cmd/ralph-cc/main.go: a cobra root
// command wrapping a RunE that drives the whole frontend-to-backend
// pipeline, package-level vars bound by pflag for every CLI flag, and
// SilenceUsage/SilenceErrors so a compile failure prints one diagnostic
// block instead of cobra's own usage dump.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	os.Exit(run())
}

func run() int {
	root := newRootCmd(os.Stdout, os.Stderr)
	if err := root.Execute(); err != nil {
		return 1
	}
	return 0
}

// Flags shared by `compile` (the default, no-subcommand behavior) and
// `build`.
var (
	libraries     []string
	output        string
	mainClass     string
	width         int
	height        int
	frameRate     float64
	noStdGlobals  bool
	debugFilename string
	watch         bool
)

func newRootCmd(out, errOut *os.File) *cobra.Command {
	root := &cobra.Command{
		Use:           "pyas3c [files...]",
		Short:         "compile Python-syntax source into an ActionScript SWF",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompile(args, out, errOut)
		},
	}
	bindCompileFlags(root)

	buildCmd := &cobra.Command{
		Use:   "build [root]",
		Short: "compile every source file under root in import-dependency order",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) == 1 {
				dir = args[0]
			}
			return runBuild(dir, out, errOut)
		},
	}
	bindCompileFlags(buildCmd)
	buildCmd.Flags().BoolVar(&watch, "watch", false, "render live per-file build status")
	root.AddCommand(buildCmd)

	return root
}

// bindCompileFlags registers §6.4's flag set on cmd, working directly
// against the *pflag.FlagSet cobra.Command.Flags returns rather than a
// cobra convenience layer on top of it.
func bindCompileFlags(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.StringArrayVar(&libraries, "library", nil, "add an SWF or SWC to the class-resolution set (repeatable)")
	flags.StringVar(&output, "output", "", "destination SWF (default: input with extension replaced)")
	flags.StringVar(&mainClass, "main-class", "Main", "class bound to frame-0 symbol 0")
	flags.IntVar(&width, "width", 800, "stage width in pixels")
	flags.IntVar(&height, "height", 600, "stage height in pixels")
	flags.Float64Var(&frameRate, "frame-rate", 24, "stage frame rate")
	flags.BoolVar(&noStdGlobals, "no-std-globals", false, "skip the auto-populated standard globals")
	flags.StringVar(&debugFilename, "debug-filename", "", "filename form written into debugfile instructions: full or basename")
}

func fail(errOut *os.File, format string, args ...interface{}) error {
	fmt.Fprintf(errOut, format+"\n", args...)
	return fmt.Errorf(format, args...)
}

package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/faiface/pixel/pixelgl"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/bradford-hamilton/hackvm/internal/bytecode"
	"github.com/bradford-hamilton/hackvm/internal/display"
	"github.com/bradford-hamilton/hackvm/internal/stdlib"
	"github.com/bradford-hamilton/hackvm/internal/vm"
)

const refreshRate = 60

var (
	steps   int
	useVMOS bool
)

// runCmd parses every `.vm` file in a directory, links it, and runs it
// either headless for a fixed step count or in a window until closed.
var runCmd = &cobra.Command{
	Use:   "run `path/to/program/dir`",
	Short: "run the hackvm emulator over a directory of .vm files",
	Args:  cobra.ExactArgs(1),
	Run:   runHackVM,
}

func init() {
	runCmd.Flags().IntVar(&steps, "steps", 0, "run headless for exactly N steps instead of opening a window")
	runCmd.Flags().BoolVar(&useVMOS, "vm", false, "load the Jack-OS from <dir>/os/*.vm bytecode instead of the native stdlib")
}

func runHackVM(cmd *cobra.Command, args []string) {
	dir := args[0]

	sources, err := loadSources(dir)
	if err != nil {
		fmt.Println(errors.Wrap(err, "reading program directory"))
		os.Exit(1)
	}

	var registry *stdlib.Registry
	var parser *bytecode.Parser

	if useVMOS {
		osSources, err := loadSources(filepath.Join(dir, "os"))
		if err != nil {
			fmt.Println(errors.Wrap(err, "reading Jack-OS directory (--vm requires <dir>/os/*.vm)"))
			os.Exit(1)
		}
		parser = bytecode.NewParser(append(osSources, sources...))
	} else {
		registry = stdlib.New()
		parser = bytecode.NewParserWithStdlib(sources, registry)
	}

	program, err := parser.Parse()
	if err != nil {
		fmt.Printf("error parsing program: %v\n", err)
		os.Exit(1)
	}
	if registry == nil {
		registry = stdlib.New()
	}

	machine := vm.New(registry)
	machine.Load(program)

	if steps > 0 {
		runHeadless(machine, steps)
		return
	}

	pixelgl.Run(func() { runWindowed(machine) })
}

func loadSources(dir string) ([]bytecode.SourceFile, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.Wrapf(err, "listing %s", dir)
	}
	var sources []bytecode.SourceFile
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".vm" {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		contents, err := os.ReadFile(path)
		if err != nil {
			return nil, errors.Wrapf(err, "reading %s", path)
		}
		sources = append(sources, bytecode.SourceFile{Name: entry.Name(), Contents: string(contents)})
	}
	if len(sources) == 0 {
		return nil, errors.Errorf("no .vm files found in %s", dir)
	}
	return sources, nil
}

func runHeadless(machine *vm.VM, n int) {
	for i := 0; i < n; i++ {
		if err := machine.Step(); err != nil {
			fmt.Printf("step %d: %v\n", i, err)
			os.Exit(1)
		}
	}
	fmt.Printf("ran %d steps; call stack: %v\n", n, machine.CallStackNames())
}

func runWindowed(machine *vm.VM) {
	win, err := display.NewWindow()
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}

	ticker := time.NewTicker(time.Second / refreshRate)
	defer ticker.Stop()

	const stepsPerFrame = 1000

	for range ticker.C {
		if win.Closed() {
			fmt.Println("window closed, shutting down")
			return
		}

		machine.SetInputKey(win.PressedKey())

		for i := 0; i < stepsPerFrame && !machine.Halted(); i++ {
			if err := machine.Step(); err != nil {
				fmt.Printf("\nerror during step: %v\n", err)
				return
			}
		}

		win.DrawFramebuffer(machine.Display())
	}
}

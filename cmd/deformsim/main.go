// deformsim runs scripted collision scenarios against the deformation
// engine without a physics host.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"sort"

	"github.com/Faultbox/crumple/internal/config"
	"github.com/Faultbox/crumple/internal/logger"
	"github.com/Faultbox/crumple/internal/sim"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	args := os.Args[2:]

	switch command {
	case "run":
		cmdRun(args)
	case "check":
		cmdCheck(args)
	case "config":
		cmdConfig(args)
	case "validate":
		cmdValidate(args)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`deformsim - mesh deformation scenario runner

Usage:
  deformsim <command> [options]

Commands:
  run [flags] <scenario.yaml>...   Run scenarios and print a report
  check <scenario.yaml>...         Parse and validate scenarios
  config [-o file]                 Print the effective config, or write it
  validate <config.yaml>           Validate a config file

Run flags:
  -config <file>    Config file (default: ./config.yaml, then user config dir)
  -debug            Debug logging
  -variant <name>   fast or precise
  -workers <n>      Deformation workers
  -stride <n>       Vertex association stride

Examples:
  deformsim run -variant precise hood.yaml
  deformsim config -o ./config.yaml
  deformsim validate ./config.yaml`)
}

func fail(err error) {
	logger.Sync()
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}

func cmdRun(args []string) {
	if err := config.ParseArgs(args); err != nil {
		fail(err)
	}
	paths := config.Args()
	if len(paths) == 0 {
		fmt.Fprintln(os.Stderr, "Usage: deformsim run [flags] <scenario.yaml>...")
		os.Exit(1)
	}

	if err := runScenarios(paths); err != nil {
		fail(err)
	}
}

// runScenarios returns instead of exiting so its deferred cleanup always runs.
func runScenarios(paths []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if err := initLogger(cfg); err != nil {
		return err
	}
	defer logger.Sync()

	setup, err := cfg.Setup()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	for _, path := range paths {
		sc, err := sim.LoadScenario(path)
		if err != nil {
			return err
		}
		rep, err := sim.Run(ctx, sc, setup)
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		printReport(path, rep)
	}
	return nil
}

func initLogger(cfg *config.Config) error {
	fileCfg := logger.FileConfig{}
	if cfg.Logging.LogFile != "" {
		fileCfg = logger.DefaultFileConfig(cfg.Logging.LogFile)
		fileCfg.JSON = cfg.Logging.JSON
	}
	return logger.InitWithFileConfig(cfg.Logging.Level, fileCfg, true)
}

func printReport(path string, rep *sim.Report) {
	name := rep.Scenario
	if name == "" {
		name = path
	}
	fmt.Printf("Scenario:       %s\n", name)
	fmt.Printf("Frames:         %d\n", rep.Frames)
	fmt.Printf("Events:         %d (%d processed, %d ignored)\n", rep.Events, rep.Processed, rep.Ignored)
	fmt.Printf("Vertices:       %d (max displacement %.4f)\n", rep.Vertices, rep.MaxDisplacement)
	fmt.Printf("Max deform:     %d events\n", rep.MaxDeformEvents)
	fmt.Printf("Demolitions:    %d\n", rep.Demolitions)

	if len(rep.Parts) == 0 {
		fmt.Println()
		return
	}

	parts := append([]sim.PartReport(nil), rep.Parts...)
	sort.Slice(parts, func(i, j int) bool { return parts[i].Name < parts[j].Name })

	fmt.Println("\nParts:")
	fmt.Printf("  %-20s %10s %8s  %s\n", "Name", "HP", "Percent", "State")
	for _, p := range parts {
		state := "intact"
		if p.Demolished {
			state = "demolished"
		} else if p.HP < p.MaxHP {
			state = "damaged"
		}
		pct := float32(p.HP) / float32(p.MaxHP) * 100
		if pct < 0 {
			pct = 0
		}
		fmt.Printf("  %-20s %4d/%-5d %7.1f%%  %s\n", p.Name, max(p.HP, 0), p.MaxHP, pct, state)
	}
	fmt.Println()
}

func cmdCheck(args []string) {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "Usage: deformsim check <scenario.yaml>...")
		os.Exit(1)
	}

	failed := false
	for _, path := range args {
		sc, err := sim.LoadScenario(path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			failed = true
			continue
		}
		fmt.Printf("OK: %s (%d vertices, %d frames)\n", path, len(sc.Mesh.Build()), len(sc.Frames))
	}
	if failed {
		os.Exit(1)
	}
}

func cmdConfig(args []string) {
	fs := flag.NewFlagSet("config", flag.ExitOnError)
	output := fs.String("o", "", "Write the config to this file")
	save := fs.Bool("save", false, "Write the config to the user config directory")
	fs.Parse(args)

	cfg, err := config.Load()
	if err != nil {
		fail(err)
	}

	switch {
	case *save:
		path, err := cfg.Save()
		if err != nil {
			fail(err)
		}
		fmt.Printf("Saved: %s\n", path)
	case *output != "":
		if err := cfg.SaveTo(*output); err != nil {
			fail(err)
		}
		fmt.Printf("Saved: %s\n", *output)
	default:
		data, err := cfg.Marshal()
		if err != nil {
			fail(err)
		}
		os.Stdout.Write(data)
	}
}

func cmdValidate(args []string) {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "Usage: deformsim validate <config.yaml>")
		os.Exit(1)
	}
	if _, err := config.LoadFile(args[0]); err != nil {
		fail(err)
	}
	fmt.Printf("OK: %s\n", args[0])
}

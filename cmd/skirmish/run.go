package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/hexaflex/skirmish/asm"
	"github.com/hexaflex/skirmish/sim"
	"github.com/hexaflex/skirmish/trace"
)

var (
	runConfig string
	runSeed   int64
	runReplay string
)

var runCmd = &cobra.Command{
	Use:   "run <robot.rasm> [robot.rasm ...]",
	Short: "Run a match between the given robot programs",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runMatch,
}

func init() {
	runCmd.Flags().StringVar(&runConfig, "config", "", "arena configuration file (TOML)")
	runCmd.Flags().Int64Var(&runSeed, "seed", 1, "match seed; identical seeds replay identically")
	runCmd.Flags().StringVar(&runReplay, "replay", "", "write a replay file to the given path")
}

func runMatch(cmd *cobra.Command, args []string) error {
	cfg := sim.DefaultConfig()

	if runConfig != "" {
		var err error
		if cfg, err = sim.LoadConfig(runConfig); err != nil {
			return err
		}
	}

	specs := make([]sim.RobotSpec, 0, len(args))
	for _, path := range args {
		prog, err := asm.AssembleFile(path, cfg.Constants())
		if err != nil {
			return err
		}
		specs = append(specs, sim.RobotSpec{
			Name:    robotName(path),
			Program: prog,
		})
	}

	match, err := sim.NewMatch(cfg, runSeed, specs)
	if err != nil {
		return err
	}

	var rec *trace.Recorder
	if runReplay != "" {
		rec = trace.NewRecorder(runSeed)
		match.SetRecorder(rec)
	}

	result := match.Run()
	printResult(result)

	if rec != nil {
		if err := rec.Replay().WriteFile(runReplay); err != nil {
			return err
		}
		fmt.Println("replay written to", runReplay)
	}

	return nil
}

// robotName derives a robot name from its source filename.
func robotName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func printResult(result sim.Result) {
	if result.Winner >= 0 {
		color.Green("winner: %s (robot %d) after %d turns", result.Robots[result.Winner].Name, result.Winner, result.Turns)
	} else {
		color.Yellow("draw after %d turns", result.Turns)
	}

	for _, r := range result.Robots {
		status := r.Status.String()
		if f := r.VM.Fault(); f != 0 {
			status = fmt.Sprintf("faulted (%s)", f)
		}
		fmt.Printf("  %-16s health %6.1f  power %4.2f  %s\n", r.Name, r.Health, r.VM.Power(), status)
	}
}

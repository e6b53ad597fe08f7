package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/hexaflex/skirmish/asm"
	"github.com/hexaflex/skirmish/sim"
)

var checkConfig string

var checkCmd = &cobra.Command{
	Use:   "check <robot.rasm> [robot.rasm ...]",
	Short: "Assemble robot programs and report any errors",
	Args:  cobra.MinimumNArgs(1),
	RunE:  checkPrograms,
}

func init() {
	checkCmd.Flags().StringVar(&checkConfig, "config", "", "arena configuration file (TOML)")
}

func checkPrograms(cmd *cobra.Command, args []string) error {
	cfg := sim.DefaultConfig()

	if checkConfig != "" {
		var err error
		if cfg, err = sim.LoadConfig(checkConfig); err != nil {
			return err
		}
	}

	failed := 0
	for _, path := range args {
		prog, err := asm.AssembleFile(path, cfg.Constants())
		if err != nil {
			color.Red("%s: %v", path, err)
			failed++
			continue
		}
		fmt.Printf("%s: ok, %d instructions, %d labels, %d constants\n",
			path, len(prog.Instructions), len(prog.Labels), len(prog.Constants))
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d programs failed to assemble", failed, len(args))
	}
	return nil
}

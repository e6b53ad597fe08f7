package main

import (
	"os"

	"github.com/spf13/cobra"
	"github.com/tliron/commonlog"

	_ "github.com/tliron/commonlog/simple"
)

var rootCmd = &cobra.Command{
	Use:   "skirmish",
	Short: "Programmable robot battle simulator",
	Long:  "Skirmish pits assembly-programmed robots against each other in a deterministic 2D arena.",
}

var verbosity int

func main() {
	rootCmd.Version = Version

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(versionCmd)

	rootCmd.PersistentFlags().CountVarP(&verbosity, "verbose", "v", "log verbosity; repeatable meaning increases detail")

	cobra.OnInitialize(func() {
		commonlog.Configure(verbosity, nil)
	})

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

// Version is the application version.
const Version = "0.1.0"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the application version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("skirmish", Version)
	},
}

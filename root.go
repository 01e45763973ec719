package main

import (
	"github.com/spf13/cobra"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

var rootCmd = &cobra.Command{
	Use:   "greeter",
	Short: "Greeter - hello world over HTTP",
	Long: `Greeter answers GET / and GET /hello/{name} with a plain text greeting,
optionally signed with the hostname of the machine serving it.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Printf("greeter version %s\n", version)
	},
}

func init() {
	rootCmd.SetVersionTemplate("greeter version {{.Version}}\n")
	rootCmd.AddCommand(versionCmd)
}

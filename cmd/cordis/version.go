package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

// GitCommit is stamped at build time via -ldflags.
var GitCommit string

const (
	versionMajor = 0
	versionMinor = 1
	versionPatch = 0
)

// Version reports the semantic release number, with the short commit hash
// appended when the binary was built with one.
func Version() string {
	vsn := fmt.Sprintf("%d.%d.%d", versionMajor, versionMinor, versionPatch)
	if len(GitCommit) >= 8 {
		vsn += "-" + GitCommit[:8]
	}
	return vsn
}

var versionCmd = &cobra.Command{
	Use:     "version",
	Short:   "Print the cordis release version",
	Aliases: []string{"V"},
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Println(Version())
	},
}

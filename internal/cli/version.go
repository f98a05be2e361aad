package cli

import (
	"fmt"
	"io"
	"runtime/debug"

	"github.com/spf13/cobra"
)

// Version is set at build time via -ldflags.
var Version = "dev"

func newVersionCmd() *cobra.Command {
	var short bool

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			info, _ := debug.ReadBuildInfo()
			printVersion(cmd.OutOrStdout(), short, info)
		},
	}

	cmd.Flags().BoolVar(&short, "short", false, "print only the version number")
	return cmd
}

func printVersion(out io.Writer, short bool, info *debug.BuildInfo) {
	if short {
		fmt.Fprintln(out, Version)
		return
	}

	line := "ta " + Version
	if info != nil {
		for _, s := range info.Settings {
			if s.Key == "vcs.revision" && len(s.Value) >= 7 {
				line += " (" + s.Value[:7] + ")"
			}
		}
		line += " " + info.GoVersion
	}
	fmt.Fprintln(out, line)
}

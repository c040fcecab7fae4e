package main

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/xgbnet/xgb"
)

func versionCmd() *cobra.Command {
	var short bool

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			if short {
				fmt.Fprintln(out, version)
				return
			}
			fmt.Fprintf(out, "xprobe %s (%s)\n", version, commit)
			fmt.Fprintf(out, "  X protocol: %d.%d\n", xgb.ProtocolMajorVersion, xgb.ProtocolMinorVersion)
			fmt.Fprintf(out, "  Go version: %s\n", runtime.Version())
			fmt.Fprintf(out, "  OS/Arch:    %s/%s\n", runtime.GOOS, runtime.GOARCH)
		},
	}

	cmd.Flags().BoolVarP(&short, "short", "s", false, "Print only the version number")
	return cmd
}

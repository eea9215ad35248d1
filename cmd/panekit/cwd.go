package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/dshills/panekit/internal/procinfo"
)

func newCwdCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cwd <pid>",
		Short: "Print the working directory of a process as a file URL",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pid, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid pid %q", args[0])
			}
			u, ok := procinfo.Default().WorkingDir(pid)
			if !ok {
				return fmt.Errorf("working directory of process %d is unknown", pid)
			}
			fmt.Fprintln(cmd.OutOrStdout(), u.String())
			return nil
		},
	}
}

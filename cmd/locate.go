package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/paraprep/internal/utils"
)

var locateFrom string

var locateCmd = &cobra.Command{
	Use:   "locate [name]",
	Short: "Find a file in the data folder of the project root",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := "example.csv"
		if len(args) == 1 {
			name = args[0]
		}
		path, ok, err := utils.FindDataFile(locateFrom, name)
		if errors.Is(err, utils.ErrRootNotFound) {
			fmt.Fprintln(cmd.OutOrStdout(), "Project root not found.")
			return nil
		}
		if err != nil {
			return err
		}
		if ok {
			fmt.Fprintf(cmd.OutOrStdout(), "File found: %s\n", path)
		} else {
			fmt.Fprintf(cmd.OutOrStdout(), "File not found: %s\n", path)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(locateCmd)
	locateCmd.Flags().StringVar(&locateFrom, "from", "", "directory to start searching from (default: working directory)")
}

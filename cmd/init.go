package main

import (
	"fmt"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/parcel-pipeline/internal/config"
)

var initPath string

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default config file",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := config.WriteDefault(initPath); err != nil {
			return eris.Wrap(err, "init config")
		}
		fmt.Fprintf(os.Stdout, "wrote %s\n", initPath)
		return nil
	},
}

func init() {
	initCmd.Flags().StringVar(&initPath, "path", "config.yaml", "where to write the config file")
	rootCmd.AddCommand(initCmd)
}

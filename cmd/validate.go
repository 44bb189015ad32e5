package main

import (
	"fmt"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/parcel-pipeline/internal/index"
)

var validateCmd = &cobra.Command{
	Use:   "validate [index-file]",
	Short: "Validate an address index file",
	Long:  "Checks an address index for projected coordinates, malformed addresses, duplicate IDs, and metadata drift.",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := cfg.Index.OutputPath
		if len(args) > 0 {
			path = args[0]
		}

		idx, err := index.Read(path)
		if err != nil {
			return eris.Wrap(err, "validate")
		}

		problems := index.Validate(idx)
		if len(problems) == 0 {
			fmt.Fprintf(os.Stdout, "%s: %d addresses, no problems\n", path, idx.Metadata.TotalAddresses)
			return nil
		}

		for _, p := range problems {
			fmt.Fprintln(os.Stdout, p)
		}
		return eris.Errorf("validate: %d problems in %s", len(problems), path)
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

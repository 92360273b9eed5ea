// File: cmd/validate.go
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(newValidateCmd())
}

// newValidateCmd checks case record files without launching a browser. It
// runs the same normalization the submission path uses, so a record that
// validates here will not fail on missing or malformed input mid-run.
func newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <case-record.json> [more records...]",
		Short: "Check case record files for problems before running them.",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			bad := 0
			for _, path := range args {
				record, err := loadCaseRecord(path)
				if err != nil {
					cmd.Printf("%s: %v\n", path, err)
					bad++
					continue
				}
				problems := checkRecord(record)
				if len(problems) == 0 {
					cmd.Printf("%s: ok\n", path)
					continue
				}
				bad++
				cmd.Printf("%s:\n", path)
				for _, p := range problems {
					cmd.Printf("  - %s\n", p)
				}
			}
			if bad > 0 {
				return fmt.Errorf("%d of %d record(s) failed validation", bad, len(args))
			}
			return nil
		},
	}
}

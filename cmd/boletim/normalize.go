package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jonathan/boletim/internal/naming"
)

var normalizeCmd = &cobra.Command{
	Use:   "normalize <name>...",
	Short: "Show the placeholder key of competency names",
	Long:  "Prints the normalized placeholder key of each competency name, as used when matching grades to template placeholders.",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runNormalize,
}

func init() {
	rootCmd.AddCommand(normalizeCmd)
}

func runNormalize(_ *cobra.Command, args []string) error {
	for _, raw := range args {
		if _, err := fmt.Fprintf(os.Stdout, "%s\t%s\n", raw, naming.Normalize(raw)); err != nil {
			return err
		}
	}
	return nil
}

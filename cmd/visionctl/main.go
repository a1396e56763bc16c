package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	root := &cobra.Command{
		Use:           "visionctl",
		Short:         "Validate and extract check PDFs outside the polling worker",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(validateCmd())
	root.AddCommand(processCmd())
	root.AddCommand(runOnceCmd())
	root.AddCommand(checkDBCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

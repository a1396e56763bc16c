package main

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/codeatpanorama/vision-flow/internal/app"
	"github.com/codeatpanorama/vision-flow/internal/config"
	"github.com/codeatpanorama/vision-flow/internal/services"

	"github.com/spf13/cobra"
)

func validateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <pdf>",
		Short: "Check that a PDF holds a whole number of front/back check pairs",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}

			validator := services.NewStructuralValidator(services.NewPopplerRenderer(cfg.Renderer))
			outcome := validator.Validate(cmd.Context(), args[0])
			if err := printJSON(cmd, outcome); err != nil {
				return err
			}
			if !outcome.IsValid {
				return fmt.Errorf("validation failed: %s", outcome.Message)
			}
			return nil
		},
	}
}

func processCmd() *cobra.Command {
	var documentID string

	cmd := &cobra.Command{
		Use:   "process <pdf>",
		Short: "Extract every check in a PDF to the CSV export and image store",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig()
			if err != nil {
				return err
			}
			logFile, err := app.SetupLogging(cfg.Log)
			if err != nil {
				return err
			}
			defer logFile.Close()

			pdfPath := args[0]
			if documentID == "" {
				documentID = strings.TrimSuffix(filepath.Base(pdfPath), filepath.Ext(pdfPath))
			}

			processor, _, err := app.NewProcessor(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			summary, err := processor.Process(cmd.Context(), documentID, pdfPath)
			if err != nil {
				return err
			}
			return printJSON(cmd, summary)
		},
	}
	cmd.Flags().StringVar(&documentID, "document-id", "", "document id recorded on each check (default: file name)")
	return cmd
}

func runOnceCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run-once",
		Short: "Run a single VALIDATE then REPORT polling cycle and exit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig()
			if err != nil {
				return err
			}
			logFile, err := app.SetupLogging(cfg.Log)
			if err != nil {
				return err
			}
			defer logFile.Close()

			pipeline, err := app.NewPipeline(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer pipeline.Close()

			return pipeline.Orchestrator.RunCycle(cmd.Context())
		},
	}
}

func printJSON(cmd *cobra.Command, v interface{}) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(b))
	return nil
}

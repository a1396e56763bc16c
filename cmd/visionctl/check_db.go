package main

import (
	"context"
	"fmt"
	"time"

	"github.com/codeatpanorama/vision-flow/internal/config"
	"github.com/codeatpanorama/vision-flow/internal/database"
	"github.com/codeatpanorama/vision-flow/internal/models"
	"github.com/codeatpanorama/vision-flow/internal/utils"

	"github.com/spf13/cobra"
)

func checkDBCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check-db",
		Short: "Verify MongoDB and InfluxDB connectivity and count pending tasks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			fmt.Fprintf(out, "=== MongoDB ===\n")
			fmt.Fprintf(out, "Database: %s\n", cfg.MongoDB.Database)
			fmt.Fprintf(out, "Collections: %s, %s, %s\n",
				cfg.MongoDB.TaskCollection, cfg.MongoDB.DocumentCollection, cfg.MongoDB.CheckDetailsCollection)

			mongoClient, err := database.NewMongoDBClient(cfg.MongoDB)
			if err != nil {
				return err
			}
			defer mongoClient.Close()

			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()

			for _, taskType := range []models.TaskType{models.TaskTypeValidate, models.TaskTypeReport} {
				tasks, err := mongoClient.FindTasks(ctx, models.TaskFilter{
					DocumentCategory: cfg.Worker.DocumentCategory,
					Type:             taskType,
					Status:           models.TaskStatusNotStarted,
				})
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "Pending %s tasks: %d\n", taskType, len(tasks))
				if len(tasks) > 0 {
					fmt.Fprintf(out, "  next: %s (created %s)\n", tasks[0].ID, utils.FormatTimestamp(tasks[0].CreatedAt))
				}
			}

			fmt.Fprintf(out, "\n=== InfluxDB ===\n")
			if cfg.InfluxDB.URL == "" {
				fmt.Fprintf(out, "not configured\n")
				return nil
			}
			fmt.Fprintf(out, "URL: %s\nOrg: %s\nBucket: %s\n", cfg.InfluxDB.URL, cfg.InfluxDB.Org, cfg.InfluxDB.Bucket)
			influxClient, err := database.NewInfluxDBClient(cfg.InfluxDB)
			if err != nil {
				return err
			}
			influxClient.Close()
			fmt.Fprintf(out, "healthy\n")
			return nil
		},
	}
}

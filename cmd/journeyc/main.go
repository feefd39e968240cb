// Package main provides the journeyc command line interface.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	cli "github.com/urfave/cli/v3"

	"github.com/dukex/journeyc/pkg/cmd"
	"github.com/dukex/journeyc/pkg/log"
	"github.com/dukex/journeyc/pkg/otelhelper"
	"github.com/dukex/journeyc/pkg/store/file"
	"go.opentelemetry.io/otel/trace"
)

const defaultPort = 9090

func main() {
	logger := log.WithModule("cli")

	command := &cli.Command{
		Name:                  "journeyc",
		Usage:                 "Convert visual workflows into journey state machines",
		EnableShellCompletion: true,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				Value:   "info",
				Sources: cli.EnvVars("LOG_LEVEL"),
			},
			&cli.StringFlag{
				Name:    "cache-url",
				Usage:   "Analysis cache URL (redis:// for Redis, empty for in-memory)",
				Sources: cli.EnvVars("CACHE_URL"),
			},
			&cli.BoolFlag{
				Name:    "tracing",
				Usage:   "Enable OpenTelemetry tracing",
				Sources: cli.EnvVars("TRACING_ENABLED"),
			},
		},
		Commands: []*cli.Command{
			{
				Name:    "convert",
				Aliases: []string{"c"},
				Usage:   "Convert a workflow document into a journey definition",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "input",
						Aliases:  []string{"i"},
						Usage:    "Path to the workflow JSON document",
						Required: true,
					},
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Path to write the journey JSON to (stdout if empty)",
					},
				},
				Action: func(ctx context.Context, c *cli.Command) error {
					return runConvert(ctx, c)
				},
			},
			{
				Name:    "analyze",
				Aliases: []string{"a"},
				Usage:   "Analyze a workflow document without converting it",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "input",
						Aliases:  []string{"i"},
						Usage:    "Path to the workflow JSON document",
						Required: true,
					},
				},
				Action: func(ctx context.Context, c *cli.Command) error {
					return runAnalyze(ctx, c)
				},
			},
			{
				Name:    "serve",
				Aliases: []string{"s"},
				Usage:   "Run the conversion API server",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:    "port",
						Aliases: []string{"p"},
						Usage:   "Port to run the API server on",
						Value:   defaultPort,
						Sources: cli.EnvVars("PORT"),
					},
					&cli.StringFlag{
						Name:    "event-bus",
						Usage:   "Event bus provider (kafka, gochannel or empty to disable)",
						Sources: cli.EnvVars("EVENT_BUS"),
					},
				},
				Action: func(ctx context.Context, c *cli.Command) error {
					return runServe(ctx, c, logger)
				},
			},
		},
	}

	if err := command.Run(context.Background(), os.Args); err != nil {
		logger.Error("Command failed", "error", err)
		os.Exit(1)
	}
}

func setupTracer(ctx context.Context, c *cli.Command) (trace.Tracer, error) {
	if !c.Bool("tracing") {
		return nil, nil
	}

	return otelhelper.NewTracer(ctx, "journeyc")
}

func runConvert(ctx context.Context, c *cli.Command) error {
	log.Setup(c.String("log-level"))
	logger := log.WithModule("convert")

	tracer, err := setupTracer(ctx, c)
	if err != nil {
		return fmt.Errorf("failed to set up tracing: %w", err)
	}

	workflow, err := file.LoadWorkflowFile(c.String("input"))
	if err != nil {
		return err
	}

	engine, err := cmd.NewAnalysisEngine(logger, c.String("cache-url"), tracer)
	if err != nil {
		return err
	}

	service := cmd.NewMappingService(logger, engine, tracer)

	journey, err := service.MapToJourney(ctx, workflow, nil)
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(journey, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal journey: %w", err)
	}

	output := c.String("output")
	if output == "" {
		fmt.Println(string(data))

		return nil
	}

	return os.WriteFile(output, data, 0600)
}

func runAnalyze(ctx context.Context, c *cli.Command) error {
	log.Setup(c.String("log-level"))
	logger := log.WithModule("analyze")

	tracer, err := setupTracer(ctx, c)
	if err != nil {
		return fmt.Errorf("failed to set up tracing: %w", err)
	}

	workflow, err := file.LoadWorkflowFile(c.String("input"))
	if err != nil {
		return err
	}

	engine, err := cmd.NewAnalysisEngine(logger, c.String("cache-url"), tracer)
	if err != nil {
		return err
	}

	result, err := engine.AnalyzeWorkflow(ctx, workflow, nil)
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal analysis result: %w", err)
	}

	fmt.Println(string(data))

	return nil
}

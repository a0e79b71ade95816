package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/moznion/go-optional"
	"github.com/schollz/progressbar/v3"
	"github.com/urfave/cli/v3"

	"github.com/nsetools/bhavadjust/internal/logger"
	"github.com/nsetools/bhavadjust/internal/version"
	"github.com/nsetools/bhavadjust/pkg/bhavdata"
)

// runAction is the core logic executed by the CLI command. It assembles the
// pipeline configuration from flags (or a YAML config file), runs the
// adjustment pipeline and reports the result.
func runAction(ctx context.Context, cmd *cli.Command) error {
	var (
		config bhavdata.ClientConfig
		err    error
	)

	if configPath := cmd.String("config"); configPath != "" {
		config, err = bhavdata.LoadConfig(configPath)
		if err != nil {
			return err
		}
	} else {
		config = bhavdata.ClientConfig{
			SourceType:  bhavdata.SourceType(cmd.String("format")),
			WriterType:  bhavdata.WriterDuckDB,
			ActionsPath: cmd.String("actions"),
			BhavPath:    cmd.String("data"),
			OutputPath:  cmd.String("out"),
			Workers:     int(cmd.Int("workers")),
		}
	}

	log, err := logger.NewLogger()
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}

	var bar *progressbar.ProgressBar

	onProgress := func(current float64, total float64, message string) {
		if bar == nil {
			bar = progressbar.NewOptions(int(total),
				progressbar.OptionSetDescription("Adjusting"),
				progressbar.OptionShowCount())
		}

		_ = bar.Set(int(current))
	}

	client, err := bhavdata.NewClient(config, log, onProgress)
	if err != nil {
		return fmt.Errorf("failed to create pipeline client: %w", err)
	}

	params := bhavdata.RunParams{Symbols: cmd.StringSlice("symbol")}

	if start := cmd.Timestamp("start"); !start.IsZero() {
		params.StartDate = optional.Some(start)
	}

	if end := cmd.Timestamp("end"); !end.IsZero() {
		params.EndDate = optional.Some(end)
	}

	result, err := client.Run(ctx, params)
	if err != nil {
		return fmt.Errorf("adjustment failed: %w", err)
	}

	fmt.Printf("\nAdjusted %d bars (%d rejected) against %d compiled events (%d rejected): %s\n",
		result.BarsAdjusted, result.BarsRejected,
		result.EventsCompiled, result.EventsRejected,
		result.OutputPath)

	return nil
}

func main() {
	cmd := &cli.Command{
		Name:    "bhavadjust",
		Usage:   "Back-adjust bhavcopy prices for corporate actions",
		Version: version.GetVersion(),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to a YAML pipeline config; overrides the other flags",
			},
			&cli.StringFlag{
				Name:    "actions",
				Aliases: []string{"a"},
				Usage:   "Path to the classified corporate-actions CSV",
			},
			&cli.StringFlag{
				Name:    "data",
				Aliases: []string{"d"},
				Usage:   "Path to the raw bars (bhavcopy CSV or a parquet glob)",
			},
			&cli.StringFlag{
				Name:    "out",
				Aliases: []string{"o"},
				Usage:   "Path to the adjusted output directory",
				Value:   "adjusted",
			},
			&cli.StringFlag{
				Name:  "format",
				Usage: fmt.Sprintf("Raw bar format (%s, %s)", bhavdata.SourceCSV, bhavdata.SourceParquet),
				Value: string(bhavdata.SourceCSV),
			},
			&cli.StringSliceFlag{
				Name:  "symbol",
				Usage: "Restrict the run to the given symbols; repeatable",
			},
			&cli.TimestampFlag{
				Name:    "start",
				Aliases: []string{"s"},
				Usage:   "Earliest trade date in `YYYY-MM-DD` format",
				Config: cli.TimestampConfig{
					Layouts: []string{"2006-01-02"},
				},
			},
			&cli.TimestampFlag{
				Name:    "end",
				Aliases: []string{"e"},
				Usage:   "Latest trade date in `YYYY-MM-DD` format",
				Value:   time.Now(),
				Config: cli.TimestampConfig{
					Layouts: []string{"2006-01-02"},
				},
			},
			&cli.IntFlag{
				Name:  "workers",
				Usage: "Number of adjustment workers; 0 uses all CPUs",
			},
		},
		Action: runAction,
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}

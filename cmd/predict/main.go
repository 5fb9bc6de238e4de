// Command predict scores a single wind power prediction from the terminal
// using the same model, feature order and validation as the web form.
//
// Usage:
//
//	predict run --month 6 --day 15 --hour 12 --wind-speed-70m 5.0
//	predict inspect --model models/XGBoost_best_model.json
//	predict features
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"

	"github.com/couchcryptid/wind-yield-predictor/internal/domain"
	"github.com/couchcryptid/wind-yield-predictor/internal/model"
	"github.com/couchcryptid/wind-yield-predictor/internal/observability"
	"github.com/couchcryptid/wind-yield-predictor/internal/predict"
)

func main() {
	_ = godotenv.Load()

	if err := newApp(os.Stdout).Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newApp(out io.Writer) *cli.App {
	return &cli.App{
		Name:   "predict",
		Usage:  "Predict wind power yield for the next 15 minutes",
		Writer: out,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "model",
				Aliases: []string{"m"},
				Value:   "XGBoost_best_model.json",
				Usage:   "Path to the XGBoost JSON model artifact",
				EnvVars: []string{"MODEL_PATH"},
			},
			&cli.StringFlag{
				Name:    "features",
				Usage:   "Comma-separated feature order the model was trained on",
				EnvVars: []string{"REQUIRED_FEATURES"},
			},
			&cli.StringFlag{
				Name:    "log-level",
				Value:   "warn",
				Usage:   "Log level (debug, info, warn, error)",
				EnvVars: []string{"LOG_LEVEL"},
			},
		},
		Commands: []*cli.Command{
			runCommand(),
			inspectCommand(),
			featuresCommand(),
		},
	}
}

// flagName turns a feature key into a flag name: wind_speed_70m becomes
// wind-speed-70m.
func flagName(key string) string {
	return strings.ReplaceAll(key, "_", "-")
}

func runCommand() *cli.Command {
	flags := []cli.Flag{
		&cli.BoolFlag{
			Name:  "json",
			Usage: "Print the result as JSON",
		},
	}
	for _, f := range domain.Catalog() {
		flags = append(flags, &cli.StringFlag{
			Name:  flagName(f.Key),
			Value: f.Format(f.Default),
			Usage: f.Label,
		})
	}
	return &cli.Command{
		Name:   "run",
		Usage:  "Run one prediction; unset inputs take the form defaults",
		Flags:  flags,
		Action: runPredict,
	}
}

func runPredict(c *cli.Context) error {
	spec, err := domain.ParseFeatureSpec(c.String("features"))
	if err != nil {
		return fmt.Errorf("invalid --features: %w", err)
	}
	logger := observability.NewCLILogger(c.String("log-level"))
	loader := model.NewLoader(c.String("model"), spec, logger)

	svc, err := predict.NewService(loader, spec, nil, logger, observability.NewUnregisteredMetrics(), 0)
	if err != nil {
		return err
	}

	values := make(map[string]string)
	for _, f := range domain.Catalog() {
		values[f.Key] = c.String(flagName(f.Key))
	}
	rec, err := domain.ParseInputRecord(values)
	if err != nil {
		return describe(err)
	}
	result, err := svc.Predict(context.Background(), rec)
	if err != nil {
		return describe(err)
	}

	if c.Bool("json") {
		enc := json.NewEncoder(c.App.Writer)
		enc.SetIndent("", "  ")
		return enc.Encode(map[string]any{
			"yield_kwh":    result.Display(),
			"raw":          result.Raw,
			"model":        result.Model,
			"columns":      result.Columns,
			"features":     result.Features,
			"predicted_at": result.PredictedAt,
		})
	}
	fmt.Fprintf(c.App.Writer, "Predicted yield (kWh): %s\n", result.Display())
	fmt.Fprintf(c.App.Writer, "Model: %s, total for the next 15 minutes\n", result.Model)
	return nil
}

func inspectCommand() *cli.Command {
	return &cli.Command{
		Name:  "inspect",
		Usage: "Load the model artifact and check it against the feature order",
		Action: func(c *cli.Context) error {
			spec, err := domain.ParseFeatureSpec(c.String("features"))
			if err != nil {
				return fmt.Errorf("invalid --features: %w", err)
			}
			logger := observability.NewCLILogger(c.String("log-level"))
			loader := model.NewLoader(c.String("model"), spec, logger)

			b, err := loader.Load(context.Background())
			if err != nil {
				return describe(err)
			}
			w := c.App.Writer
			fmt.Fprintf(w, "Model:       %s\n", loader.Name())
			fmt.Fprintf(w, "Path:        %s\n", loader.Path())
			fmt.Fprintf(w, "Objective:   %s\n", b.Objective())
			fmt.Fprintf(w, "Base score:  %g\n", b.BaseScore())
			fmt.Fprintf(w, "Trees:       %d\n", b.NumTrees())
			fmt.Fprintf(w, "Inputs:      %d\n", b.NumFeature())
			if names := b.FeatureNames(); len(names) > 0 {
				fmt.Fprintf(w, "Columns:     %s\n", strings.Join(names, ", "))
			} else {
				fmt.Fprintf(w, "Columns:     (unnamed, checked by width)\n")
			}
			fmt.Fprintf(w, "Feature order matches: %s\n", spec)
			return nil
		},
	}
}

func featuresCommand() *cli.Command {
	return &cli.Command{
		Name:  "features",
		Usage: "List the required feature order and input ranges",
		Action: func(c *cli.Context) error {
			spec, err := domain.ParseFeatureSpec(c.String("features"))
			if err != nil {
				return fmt.Errorf("invalid --features: %w", err)
			}
			w := c.App.Writer
			for i, key := range spec.Names() {
				f, _ := domain.LookupFeature(key)
				upper := "unbounded"
				if f.HasMax() {
					upper = f.Format(f.Max)
				}
				fmt.Fprintf(w, "%2d  %-16s %-26s min %s, max %s\n", i, f.Key, f.Label, f.Format(f.Min), upper)
			}
			return nil
		},
	}
}

// describe prefixes err with the operator-facing title for its kind.
func describe(err error) error {
	return fmt.Errorf("%s\n%w", domain.KindOf(err).Title(), err)
}

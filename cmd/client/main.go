// Command creditscore-client is a terminal front end for the scoring
// service: list clients, score one, or browse interactively.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/okian/creditscore/internal/client"
	"github.com/okian/creditscore/internal/config"
	"github.com/okian/creditscore/pkg/logger"
	"github.com/samber/lo"
	"github.com/urfave/cli/v3"
)

const (
	envURL         = "SCORING_API_URL"
	defaultTimeout = 10 * time.Second
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newCommand().Run(ctx, os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newCommand() *cli.Command {
	return &cli.Command{
		Name:  "creditscore-client",
		Usage: "query the credit scoring service",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "url",
				Usage:   "base URL of the scoring service",
				Value:   client.DefaultBaseURL,
				Sources: cli.EnvVars(envURL),
			},
			&cli.DurationFlag{
				Name:  "timeout",
				Usage: "per request timeout",
				Value: defaultTimeout,
			},
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"o"},
				Usage:   "output format: table, json or yaml",
				Value:   client.FormatTable,
			},
			&cli.BoolFlag{
				Name:  "debug",
				Usage: "log HTTP exchanges to stderr",
			},
		},
		Before: setup,
		Action: interactive,
		Commands: []*cli.Command{
			{
				Name:   "clients",
				Usage:  "list known client identifiers",
				Action: listClients,
			},
			{
				Name:      "predict",
				Usage:     "score one client",
				ArgsUsage: "<SK_ID_CURR>",
				Action:    predict,
			},
		},
	}
}

func setup(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	if err := logger.Init(logger.WithFormat(logger.FormatTint), logger.WithWriter(os.Stderr)); err != nil {
		return ctx, err
	}
	level := "warn"
	if cmd.Bool("debug") {
		level = "debug"
	}
	if err := logger.SetLevelString(level); err != nil {
		return ctx, err
	}
	if err := config.LoadDotEnv(ctx); err != nil {
		return ctx, err
	}
	if f := cmd.String("format"); !lo.Contains(client.Formats, f) {
		return ctx, fmt.Errorf("unknown format %q, want one of %v", f, client.Formats)
	}
	return ctx, nil
}

func newClient(cmd *cli.Command) (*client.Client, *client.Renderer, error) {
	c, err := client.New(cmd.String("url"),
		client.WithTimeout(cmd.Duration("timeout")),
		client.WithDebug(cmd.Bool("debug")),
		client.WithLogger(logger.Named("client")),
	)
	if err != nil {
		return nil, nil, err
	}
	return c, client.NewRenderer(os.Stdout, cmd.String("format"), !color.NoColor), nil
}

func interactive(ctx context.Context, cmd *cli.Command) error {
	c, r, err := newClient(cmd)
	if err != nil {
		return err
	}
	return client.NewSession(c, r, os.Stdin, os.Stdout).Run(ctx)
}

func listClients(ctx context.Context, cmd *cli.Command) error {
	c, r, err := newClient(cmd)
	if err != nil {
		return err
	}
	ids, err := c.Clients(ctx)
	if err != nil {
		r.Error(err, c.BaseURL())
		return cli.Exit("", 1)
	}
	return r.Clients(ids)
}

func predict(ctx context.Context, cmd *cli.Command) error {
	if cmd.Args().Len() != 1 {
		return cli.Exit("usage: creditscore-client predict <SK_ID_CURR>", 2)
	}
	id, err := strconv.ParseInt(cmd.Args().First(), 10, 64)
	if err != nil {
		return cli.Exit(fmt.Sprintf("invalid identifier %q", cmd.Args().First()), 2)
	}

	c, r, err := newClient(cmd)
	if err != nil {
		return err
	}
	res, err := c.Predict(ctx, id)
	if err != nil {
		r.Error(err, c.BaseURL())
		return cli.Exit("", 1)
	}
	return r.Prediction(res)
}

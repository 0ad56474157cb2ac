package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/urfave/cli/v2"

	"lingua/backend/assessment"
	"lingua/backend/catalog"
	"lingua/backend/client"
	"lingua/backend/screen"
	"lingua/backend/utils"
)

func main() {
	app := &cli.App{
		Name:  "lingua",
		Usage: "take an assessment in the terminal",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "server",
				Value:   "http://localhost:8080",
				Usage:   "backend base URL",
				EnvVars: []string{"LINGUA_SERVER"},
			},
			&cli.StringFlag{
				Name:     "username",
				Usage:    "account name",
				EnvVars:  []string{"LINGUA_USERNAME"},
				Required: true,
			},
			&cli.StringFlag{
				Name:     "password",
				Usage:    "account password",
				EnvVars:  []string{"LINGUA_PASSWORD"},
				Required: true,
			},
			&cli.StringFlag{
				Name:  "assessment",
				Value: "chapter3-assessment",
				Usage: "assessment id from the built-in catalog",
			},
			&cli.DurationFlag{
				Name:  "timeout",
				Value: 10 * time.Second,
				Usage: "time allowed for saving progress",
			},
			&cli.BoolFlag{
				Name:  "no-color",
				Usage: "disable colors",
			},
		},
		Action: run,
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(c *cli.Context) error {
	logger := utils.InitLogger(utils.LoggerConfig{Output: os.Stderr, Level: slog.LevelWarn})

	a, err := catalog.Default().Get(c.String("assessment"))
	if err != nil {
		return err
	}

	api := client.New(c.String("server")).WithTimeout(c.Duration("timeout"))
	ctx, cancel := context.WithTimeout(c.Context, c.Duration("timeout"))
	defer cancel()
	if err := api.Login(ctx, c.String("username"), c.String("password")); err != nil {
		return err
	}

	model := screen.New(assessment.NewSession(a), api, screen.Options{
		NoColor: c.Bool("no-color"),
		Timeout: c.Duration("timeout"),
	})
	final, err := tea.NewProgram(model, tea.WithAltScreen()).Run()
	if err != nil {
		return fmt.Errorf("run screen: %w", err)
	}

	done := final.(screen.Model)
	err = summarize(os.Stdout, a.Title, done.Session(), done.Outcome())
	if errors.Is(err, errProgressNotSaved) {
		logger.Warn("progress was not saved", "assessment_id", a.ID)
	}
	return err
}

// errProgressNotSaved is returned when the attempt was scored but the
// tracker never recorded it.
var errProgressNotSaved = errors.New("progress was not saved")

func summarize(w io.Writer, title string, session *assessment.Session, outcome screen.Outcome) error {
	result, scored := session.Result()
	switch {
	case outcome == screen.OutcomeCompleted:
		fmt.Fprintf(w, "%s: %d%% (+%d XP)\n", title, result.Score, result.XP)
	case scored && session.State() == assessment.StateFailed:
		return fmt.Errorf("%s: %d%%: %w", title, result.Score, errProgressNotSaved)
	default:
		fmt.Fprintln(w, "Évaluation abandonnée")
	}
	return nil
}

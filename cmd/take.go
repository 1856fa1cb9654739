package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/abhisek/quizly/internal/grading"
	"github.com/abhisek/quizly/internal/quiz"
	"github.com/abhisek/quizly/internal/remote"
	"github.com/abhisek/quizly/internal/session"
	"github.com/abhisek/quizly/internal/tui"
)

var takeCmd = &cobra.Command{
	Use:   "take",
	Short: "Take a quiz in the terminal",
	Long: `Take a quiz in the terminal. The quiz is registered with the backend so
answers can be saved, and free-text answers are graded as you type.

With --id a quiz already stored on the backend is taken again. Without
--quiz or --id a small placeholder quiz is used.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		quizPath, _ := cmd.Flags().GetString("quiz")
		quizID, _ := cmd.Flags().GetString("id")
		if quizPath != "" && quizID != "" {
			return fmt.Errorf("--quiz and --id are mutually exclusive")
		}
		apiURL, _ := cmd.Flags().GetString("api")
		if apiURL == "" {
			apiURL = appConfig.APIURL
		}
		logPath, _ := cmd.Flags().GetString("log-file")

		logger, closeLog, err := takeLogger(logPath)
		if err != nil {
			return err
		}
		defer closeLog()

		client := remote.New(apiURL, remote.WithLogger(logger))

		var q *quiz.Quiz
		if quizID != "" {
			stored, err := client.GetQuiz(ctx, quizID)
			if err != nil {
				return fmt.Errorf("fetch quiz %s from %s: %w", quizID, apiURL, err)
			}
			q = &stored.Quiz
		} else {
			q = quiz.Placeholder()
			if quizPath != "" {
				if q, err = quiz.LoadFile(quizPath); err != nil {
					return err
				}
			}
			id, err := client.RegisterQuiz(ctx, q)
			if err != nil {
				return fmt.Errorf("register quiz with %s: %w", apiURL, err)
			}
			q.ID = id
		}

		coord := grading.NewCoordinator(client,
			grading.WithDebounce(appConfig.GradeDebounce),
			grading.WithLogger(logger),
		)
		defer coord.Stop()

		sess := session.New(session.Deps{
			Sink:      client,
			Grading:   coord,
			Explainer: client,
			Logger:    logger,
		})
		if err := sess.Start(q); err != nil {
			return fmt.Errorf("start quiz: %w", err)
		}

		return tui.Run(ctx, sess)
	},
}

// takeLogger writes to path when set. The terminal belongs to the UI, so
// logs are dropped otherwise.
func takeLogger(path string) (*slog.Logger, func(), error) {
	if path == "" {
		return slog.New(slog.NewTextHandler(io.Discard, nil)), func() {}, nil
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}
	return appConfig.NewLogger(f), func() { _ = f.Close() }, nil
}

func init() {
	takeCmd.Flags().StringP("quiz", "q", "", "Path to a quiz JSON file")
	takeCmd.Flags().String("id", "", "Take a quiz already stored on the backend")
	takeCmd.Flags().String("api", "", "Backend URL (overrides QUIZLY_API_URL)")
	takeCmd.Flags().String("log-file", "", "Write logs to this file")
}

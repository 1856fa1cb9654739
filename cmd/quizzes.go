package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/quizly/internal/remote"
)

var quizzesCmd = &cobra.Command{
	Use:   "quizzes",
	Short: "List or delete quizzes stored on the backend",
}

var quizzesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored quizzes, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		topic, _ := cmd.Flags().GetString("topic")

		quizzes, err := backendClient(cmd).ListQuizzes(cmd.Context(), topic)
		if err != nil {
			return fmt.Errorf("list quizzes: %w", err)
		}

		out := cmd.OutOrStdout()
		if len(quizzes) == 0 {
			fmt.Fprintln(out, "No quizzes found.")
			return nil
		}

		fmt.Fprintf(out, "%-36s  %-24s  %-9s  %-8s  %s\n",
			"ID", "Topic", "Questions", "Answered", "Created")
		fmt.Fprintln(out, strings.Repeat("─", 100))

		for _, q := range quizzes {
			answered := "-"
			if q.Answers != nil {
				answered = "yes"
			}
			fmt.Fprintf(out, "%-36s  %-24s  %-9d  %-8s  %s\n",
				truncate(q.Quiz.ID, 36),
				truncate(q.Quiz.Topic, 24),
				len(q.Quiz.Questions),
				answered,
				q.CreatedAt.Local().Format("2006-01-02 15:04"),
			)
		}
		return nil
	},
}

var quizzesDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a stored quiz and its answers",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := backendClient(cmd).DeleteQuiz(cmd.Context(), args[0]); err != nil {
			return fmt.Errorf("delete quiz: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Deleted quiz %s.\n", args[0])
		return nil
	},
}

// backendClient builds a client for --api, falling back to QUIZLY_API_URL.
func backendClient(cmd *cobra.Command) *remote.Client {
	apiURL, _ := cmd.Flags().GetString("api")
	if apiURL == "" {
		apiURL = appConfig.APIURL
	}
	return remote.New(apiURL)
}

func init() {
	quizzesCmd.PersistentFlags().String("api", "", "Backend URL (overrides QUIZLY_API_URL)")
	quizzesListCmd.Flags().StringP("topic", "t", "", "Only list quizzes with this topic")

	quizzesCmd.AddCommand(quizzesListCmd)
	quizzesCmd.AddCommand(quizzesDeleteCmd)
}

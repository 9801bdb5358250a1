package cli

import (
	"fmt"
	"io"
	"text/tabwriter"

	"quiz-client/internal/api"
	"quiz-client/internal/auth"
	"quiz-client/internal/config"
	"quiz-client/internal/domain"
	"quiz-client/internal/logging"

	"github.com/spf13/cobra"
)

// NewQuizzesCmd prints the quiz catalog.
func NewQuizzesCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "quizzes",
		Short: "List available quizzes",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			client, _ := newAPIClient(cfg)
			quizzes, err := client.ListQuizzes(cmd.Context())
			if err != nil {
				return fmt.Errorf("%s: %w", domain.MsgLoadFailed, err)
			}
			return printQuizzes(cmd.OutOrStdout(), quizzes)
		},
	}
}

// NewHistoryCmd prints the signed-in player's past attempts.
func NewHistoryCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "history",
		Short: "Show your past attempts",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			client, session := newAPIClient(cfg)
			if _, ok := session.CurrentUser(cmd.Context()); !ok {
				return fmt.Errorf("%s: %w", domain.MsgLoginRequired, domain.ErrUnauthenticated)
			}
			entries, err := client.UserAttempts(cmd.Context())
			if err != nil {
				return err
			}
			return printHistory(cmd.OutOrStdout(), entries)
		},
	}
}

func newAPIClient(cfg config.Config) (*api.Client, *auth.Session) {
	logger := logging.New(cfg.Log.Env)
	session := auth.NewSession(cfg.API.Token)
	client := api.New(api.Options{
		BaseURL: cfg.API.BaseURL,
		Timeout: config.TTLDuration(cfg.API.Timeout, 0),
		Tokens:  session.Token,
	}, logger)
	if cfg.API.VerifyUser {
		session.VerifyWith(client)
	}
	return client, session
}

func printQuizzes(w io.Writer, quizzes []domain.QuizSummary) error {
	if len(quizzes) == 0 {
		_, err := fmt.Fprintln(w, "No quizzes available.")
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTITLE\tQUESTIONS\tMINUTES")
	for _, q := range quizzes {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\n", q.ID, q.Title, q.QuestionCount, q.TimeLimit)
	}
	return tw.Flush()
}

func printHistory(w io.Writer, entries []domain.HistoryEntry) error {
	if len(entries) == 0 {
		_, err := fmt.Fprintln(w, "No attempts yet.")
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "QUIZ\tSCORE\tPERCENT\tTIME\tCOMPLETED")
	for _, e := range entries {
		fmt.Fprintf(tw, "%s\t%d\t%d%%\t%ds\t%s\n", e.QuizTitle, e.Score, e.Percentage, e.TimeSpent, e.CompletedAt.Local().Format("2006-01-02 15:04"))
	}
	return tw.Flush()
}

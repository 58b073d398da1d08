package cli

import (
	"net/url"

	"github.com/spf13/cobra"
)

func newScoreCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "score",
		Short: "Read and submit your scores",
	}

	cmd.AddCommand(newScoreGetCmd())
	cmd.AddCommand(newScoreSubmitCmd())

	return cmd
}

func newScoreGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <game>",
		Short: "Show your current score in a game",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var result ScoreResult

			if err := client.Get(scorePath(args[0]), &result); err != nil {
				return err
			}

			newOutput(cmd).Print(result)
			return nil
		},
	}
}

func newScoreSubmitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "submit <game> <score>",
		Short: "Replace your score in a game",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			// Validation happens server side so the raw text is sent as is
			req := map[string]string{"score": args[1]}
			var result ScoreResult

			if err := client.Post(scorePath(args[0]), req, &result); err != nil {
				return err
			}

			newOutput(cmd).Print(result)
			return nil
		},
	}
}

func scorePath(game string) string {
	return "/api/v1/games/" + url.PathEscape(game) + "/score"
}

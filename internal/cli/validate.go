package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"outcome-quiz-service/internal/quizdoc"
)

// NewValidateCmd checks quiz documents without touching any store.
func NewValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <quiz.json>...",
		Short: "Validate quiz documents",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			failed := 0
			for _, path := range args {
				quiz, err := quizdoc.ReadFile(path)
				if err != nil {
					failed++
					fmt.Fprintf(cmd.ErrOrStderr(), "%s: %v\n", path, err)
					continue
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s: ok (%s, %d questions, %d results)\n",
					path, quiz.Mode, len(quiz.Questions), len(quiz.Results))
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d quiz documents invalid", failed, len(args))
			}
			return nil
		},
	}
}

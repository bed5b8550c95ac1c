package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var winnersOutput string

var winnersCmd = &cobra.Command{
	Use:   "winners <scholarship name>",
	Short: "Search the web for past winners of a scholarship",
	Long: `Searches the web for announcements of past winners of the named scholarship and
prints the verified names with a context clue (university, city or field of study).

Needs OPENAI_API_KEY and TAVILY_API_KEY unless the mock provider is enabled.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := strings.Join(args, " ")

		winners, err := newWinnerFinder().FindWinners(cmd.Context(), name)
		if err != nil {
			return err
		}
		if len(winners) == 0 {
			fmt.Fprintln(cmd.ErrOrStderr(), "Could not find any past winners.")
		}

		data, err := json.MarshalIndent(winners, "", "  ")
		if err != nil {
			return err
		}
		if winnersOutput == "" {
			_, err = fmt.Fprintln(cmd.OutOrStdout(), string(data))
			return err
		}
		if err := os.WriteFile(winnersOutput, append(data, '\n'), 0o644); err != nil {
			return fmt.Errorf("failed to write winners: %w", err)
		}
		logger.Info("past winners saved", zap.String("path", winnersOutput), zap.Int("winners", len(winners)))
		return nil
	},
}

func init() {
	winnersCmd.Flags().StringVarP(&winnersOutput, "output", "o", "", "Write the winners as JSON to this file")
}

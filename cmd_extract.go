package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

var extractCmd = &cobra.Command{
	Use:   "extract [description]",
	Short: "Extract requirements, values and weights from a scholarship description",
	RunE: func(cmd *cobra.Command, args []string) error {
		description := strings.Join(args, " ")
		if descriptionFile != "" {
			data, err := os.ReadFile(descriptionFile)
			if err != nil {
				return fmt.Errorf("failed to read description: %w", err)
			}
			description = string(data)
		}

		_, extractor := newProvider()
		profile, err := extractor.Extract(cmd.Context(), description)
		if err != nil {
			return err
		}

		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(profile)
	},
}

func init() {
	extractCmd.Flags().StringVarP(&descriptionFile, "file", "f", "", "Read the scholarship description from a file")
}

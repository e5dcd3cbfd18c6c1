package cmd

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dativo-io/parley/internal/caseid"
)

var extractJSON bool

var extractCmd = &cobra.Command{
	Use:   "extract [text]",
	Short: "Extract a case identifier from utterance text",
	Long: `Run the case identifier extractor over a single utterance.

Handles written forms (ABC-123, 12345) and spoken digit sequences
("one two three four five"), including spoken prefixed identifiers
("vip zero zero one").`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		_, span := tracer.Start(cmd.Context(), "extract")
		defer span.End()

		text := strings.Join(args, " ")
		caseNumber, ok := caseid.Extract(text)

		if extractJSON {
			out := map[string]interface{}{"found": ok}
			if ok {
				out["case_number"] = caseNumber
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			return enc.Encode(out)
		}

		if !ok {
			fmt.Fprintln(cmd.OutOrStdout(), "no case identifier found")
			return nil
		}
		fmt.Fprintln(cmd.OutOrStdout(), caseNumber)
		return nil
	},
}

func init() {
	extractCmd.Flags().BoolVar(&extractJSON, "json", false, "emit JSON output")
	rootCmd.AddCommand(extractCmd)
}

package main

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/specvital/jvmtest/pkg/resultstream"
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Decode a test process output stream",
	Long: `Read the output of a test process from stdin. Ordinary output is copied to stdout,
result stream events are written to stderr as JSON lines. The exit code is 1 when the
run reports failed tests.`,
	Args: cobra.NoArgs,
	RunE: runReport,
}

func init() {
	rootCmd.AddCommand(reportCmd)
}

func runReport(cmd *cobra.Command, args []string) error {
	rd := resultstream.NewReader(cmd.InOrStdin(), cmd.OutOrStdout())
	events := json.NewEncoder(cmd.ErrOrStderr())

	for {
		m, err := rd.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		if !m.Kind.IsKnown() {
			slog.Debug("unknown result stream event", "kind", string(m.Kind))
		}
		if err := events.Encode(m); err != nil {
			return err
		}

		if m.Kind == resultstream.KindRunFinished {
			failed, _ := m.Get(resultstream.AttrFailed)
			if n, err := strconv.Atoi(failed); err == nil && n > 0 {
				exitCode = 1
			}
		}
	}
}

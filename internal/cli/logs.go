package cli

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/harun/agencycode/pkg/runlog"
	"github.com/spf13/cobra"
)

var (
	logsDir     string
	logsDate    string
	logsSession string
)

var logsCmd = &cobra.Command{
	Use:   "logs",
	Short: "Show session log records",
	Long: `Show the records of a daily session log, optionally limited to one session.
Dates use the YYYYMMDD form of the log file name; the default is today.`,
	Args: cobra.NoArgs,
	RunE: runLogs,
}

func init() {
	logsCmd.Flags().StringVar(&logsDir, "log-dir", "", "session log directory, overrides the config")
	logsCmd.Flags().StringVar(&logsDate, "date", "", "day to show, YYYYMMDD (default today)")
	logsCmd.Flags().StringVar(&logsSession, "session", "", "only show this session id")
	rootCmd.AddCommand(logsCmd)
}

func runLogs(cmd *cobra.Command, args []string) error {
	dir := logsDir
	if dir == "" {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		dir = cfg.LogDir
	}

	day := time.Now()
	if logsDate != "" {
		parsed, err := time.ParseInLocation("20060102", logsDate, time.Local)
		if err != nil {
			return fmt.Errorf("invalid date %q: expected YYYYMMDD", logsDate)
		}
		day = parsed
	}

	records, err := runlog.ReadRecords(runlog.DailyPath(dir, day), logsSession)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	for _, rec := range records {
		agentName := rec.Agent
		if agentName == "" {
			agentName = "-"
		}
		data := ""
		if len(rec.Data) > 0 {
			raw, err := json.Marshal(rec.Data)
			if err != nil {
				return fmt.Errorf("failed to format record: %w", err)
			}
			data = string(raw)
		}
		fmt.Fprintf(out, "%s  %s  %-14s %-16s %s\n", rec.Timestamp, rec.SessionID, rec.Event, agentName, data)
	}
	if len(records) == 0 {
		fmt.Fprintln(out, "No records found.")
	}
	return nil
}

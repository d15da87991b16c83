package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/kozaktomas/face-attendance/internal/constants"
)

var attendanceCmd = &cobra.Command{
	Use:   "attendance",
	Short: "Work with the attendance log",
}

var attendanceListCmd = &cobra.Command{
	Use:   "list",
	Short: "List attendance records",
	Long: `List the records of the configured attendance backend (ATTENDANCE_BACKEND)
in the order they were written.

Examples:
  face-attendance attendance list
  face-attendance attendance list --since 2024-09-02`,
	Args: cobra.NoArgs,
	RunE: runAttendanceList,
}

func init() {
	rootCmd.AddCommand(attendanceCmd)
	attendanceCmd.AddCommand(attendanceListCmd)

	attendanceListCmd.Flags().String("since", "", "Only records observed on or after this date (YYYY-MM-DD)")
	attendanceListCmd.Flags().Bool("json", false, "Output as JSON")
}

func runAttendanceList(cmd *cobra.Command, args []string) error {
	cfg, done, err := setup()
	if err != nil {
		return err
	}
	defer done()

	var since time.Time
	if s := mustGetString(cmd, "since"); s != "" {
		since, err = time.ParseInLocation(constants.DateLayout, s, time.Local)
		if err != nil {
			return fmt.Errorf("invalid --since date %q, expected YYYY-MM-DD", s)
		}
	}

	store, err := openAttendanceStore(cfg)
	if err != nil {
		return err
	}
	records, err := store.List(context.Background(), since)
	if err != nil {
		return fmt.Errorf("list attendance: %w", err)
	}

	summaries := make([]RecordSummary, len(records))
	for i, r := range records {
		summaries[i] = RecordSummary{Label: r.Label, ObservedAt: r.ObservedAt.Format(constants.TimestampLayout)}
	}
	if mustGetBool(cmd, "json") {
		return outputJSON(summaries)
	}

	if len(summaries) == 0 {
		fmt.Println("No attendance records")
		return nil
	}
	for _, r := range summaries {
		fmt.Printf("%s  %s\n", r.ObservedAt, r.Label)
	}
	fmt.Printf("\n%d records\n", len(summaries))
	return nil
}

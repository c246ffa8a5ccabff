package main

import (
	"encoding/json"
	"os"

	"github.com/margindesk/margindesk_backend/finance"
	"github.com/spf13/cobra"
)

var (
	reportPodID  int
	reportFrom   string
	reportTo     string
	reportOutput string
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Financial reports",
}

var reportPodCmd = &cobra.Command{
	Use:   "pod",
	Short: "Revenue, cost, utilization and margins for one pod",
	Example: `
  margindesk-cli report pod --pod 3 --from 2024-04 --to 2024-06
  margindesk-cli report pod --pod 3 --from 2024-04 --to 2024-06 --xlsx q1.xlsx
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		start, err := finance.ParseReportDate(reportFrom, false)
		if err != nil {
			return err
		}
		end, err := finance.ParseReportDate(reportTo, true)
		if err != nil {
			return err
		}
		a, err := connect(cmd.Context())
		if err != nil {
			return err
		}
		rep, err := a.Reports.PodReport(cmd.Context(), reportPodID, start, end)
		if err != nil {
			return err
		}
		rounded := rep.Rounded()

		if reportOutput != "" {
			data, err := finance.Workbook(&rounded)
			if err != nil {
				return err
			}
			return os.WriteFile(reportOutput, data, 0o644)
		}
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(rounded)
	},
}

func init() {
	rootCmd.AddCommand(reportCmd)
	reportCmd.AddCommand(reportPodCmd)

	reportPodCmd.Flags().IntVar(&reportPodID, "pod", 0, "Pod id")
	reportPodCmd.Flags().StringVar(&reportFrom, "from", "", "First month or day (YYYY-MM or YYYY-MM-DD)")
	reportPodCmd.Flags().StringVar(&reportTo, "to", "", "Last month or day (YYYY-MM or YYYY-MM-DD)")
	reportPodCmd.Flags().StringVar(&reportOutput, "xlsx", "", "Write an xlsx workbook here instead of printing JSON")
	_ = reportPodCmd.MarkFlagRequired("pod")
	_ = reportPodCmd.MarkFlagRequired("from")
	_ = reportPodCmd.MarkFlagRequired("to")
}

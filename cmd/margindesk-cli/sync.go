package main

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/margindesk/margindesk_backend/config"
	"github.com/margindesk/margindesk_backend/jobs"
	"github.com/margindesk/margindesk_backend/models"
	"github.com/margindesk/margindesk_backend/syncer"
	"github.com/margindesk/margindesk_backend/utils"
	"github.com/spf13/cobra"
)

var (
	syncDateRange string
	syncEnqueue   bool
)

var syncCmd = &cobra.Command{
	Use:   "sync <type>",
	Short: "Pull one sync type (or all) from Zoho and Microsoft",
	Long: `Run a sync in this process and print its SyncLog.

Types: contacts, invoices, cash_receipts, employees, leaves, holidays, microsoft_users,
bills, expenses, all. Bills and expenses need --range.`,
	Example: `
  margindesk-cli sync employees
  margindesk-cli sync bills --range last_month
  margindesk-cli sync all --enqueue
`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		t, err := models.ParseSyncType(args[0])
		if err != nil {
			return err
		}
		if syncEnqueue {
			return enqueueSync(cmd, t)
		}

		a, err := connect(cmd.Context())
		if err != nil {
			return err
		}
		cid := uuid.NewString()
		ctx := utils.SetCorrelationIdInContext(cmd.Context(), cid)
		ctx = utils.SetTriggeredByInContext(ctx, models.SyncTriggeredCLI)
		logs, runErr := a.Syncer.Run(ctx, syncer.Request{
			SyncType:      t,
			DateRange:     syncDateRange,
			TriggeredBy:   utils.TriggeredBy(ctx),
			CorrelationID: cid,
		})
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		for _, l := range logs {
			if err := enc.Encode(l); err != nil {
				return err
			}
		}
		return runErr
	},
}

func enqueueSync(cmd *cobra.Command, t models.SyncType) error {
	settings, err := config.LoadSettings()
	if err != nil {
		return err
	}
	e := jobs.NewEnqueuer(asynq.RedisClientOpt{Addr: settings.RedisAddress, Password: settings.RedisPassword})
	defer e.Close()
	info, err := e.EnqueueSync(cmd.Context(), t, syncDateRange)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Enqueued %s sync as task %s on queue %s\n", t, info.ID, info.Queue)
	return nil
}

var billDetailsCmd = &cobra.Command{
	Use:   "bill-details",
	Short: "Fetch line items for every stored bill in a date range and wait for the job",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := connect(cmd.Context())
		if err != nil {
			return err
		}
		job, err := a.Jobs.StartBillDetails(utils.SetTriggeredByInContext(cmd.Context(), models.SyncTriggeredCLI), syncDateRange)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Started job %s\n", job.ID)
		a.Jobs.Wait()

		job, err = a.Jobs.Get(cmd.Context(), job.ID)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(),
			"Job %s %s. Total: %d, Processed: %d, Succeeded: %d, Errors: %d\n",
			job.ID, job.Status, job.Total, job.Processed, job.SuccessCount, job.ErrorCount,
		)
		for _, m := range job.ErrorMessages {
			fmt.Fprintln(cmd.OutOrStdout(), "  "+m)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(syncCmd)
	rootCmd.AddCommand(billDetailsCmd)

	syncCmd.Flags().StringVar(&syncDateRange, "range", "", "Date range token (last_month, this_quarter, 2024-03, all, ...)")
	syncCmd.Flags().BoolVar(&syncEnqueue, "enqueue", false, "Hand the run to the worker instead of running it here")
	billDetailsCmd.Flags().StringVar(&syncDateRange, "range", "", "Date range token")
	_ = billDetailsCmd.MarkFlagRequired("range")
}

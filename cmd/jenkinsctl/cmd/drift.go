package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/pramodksahoo/jenkins-production/internal/applogger"
	"github.com/pramodksahoo/jenkins-production/internal/models"
)

func init() {
	rootCmd.AddCommand(driftCmd)
}

var driftCmd = &cobra.Command{
	Use:    "drift",
	PreRun: bindCmdFlags,
	Short:  "list drift recorded against the latest applied revision",
	Run: func(cmd *cobra.Command, args []string) {
		logger := applogger.NewLogger()
		db, err := newDb(logger)
		if err != nil {
			logger.Error("failed to connect to revision store", zap.Error(err))
			os.Exit(1)
		}
		revision, err := models.NewRevisionModelSvc(db, logger).LatestApplied()
		if err != nil {
			logger.Error("failed to load latest applied revision", zap.Error(err))
			os.Exit(1)
		}
		if revision == nil {
			logger.Info("no applied revision, nothing to compare against")
			return
		}
		events, err := models.NewDriftModelSvc(db, logger).ListForRevision(revision.ID)
		if err != nil {
			logger.Error("failed to list drift events", zap.Error(err))
			os.Exit(1)
		}
		if len(events) == 0 {
			logger.Info("no drift recorded", zap.Uint("revision", revision.ID))
			return
		}
		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "RESOURCE\tFIELD\tEXPECTED\tOBSERVED\tLAST SEEN")
		for _, event := range events {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
				event.ResourceID,
				event.Field,
				event.Expected,
				event.Observed,
				event.UpdatedAt.Format("2006-01-02 15:04:05"),
			)
		}
		w.Flush()
	},
}

package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/pramodksahoo/jenkins-production/internal/applogger"
	"github.com/pramodksahoo/jenkins-production/internal/models"
)

func init() {
	revisionsCmd.PersistentFlags().Int("limit", 20, "number of revisions to list")
	rootCmd.AddCommand(revisionsCmd)
}

var revisionsCmd = &cobra.Command{
	Use:    "revisions",
	PreRun: bindCmdFlags,
	Short:  "list recorded revisions, newest first",
	Run: func(cmd *cobra.Command, args []string) {
		logger := applogger.NewLogger()
		db, err := newDb(logger)
		if err != nil {
			logger.Error("failed to connect to revision store", zap.Error(err))
			os.Exit(1)
		}
		revisions, err := models.NewRevisionModelSvc(db, logger).List(viper.GetInt("limit"))
		if err != nil {
			logger.Error("failed to list revisions", zap.Error(err))
			os.Exit(1)
		}
		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tUID\tSTATUS\tRESOURCES\tCREATED\tMESSAGE")
		for _, revision := range revisions {
			fmt.Fprintf(w, "%d\t%s\t%s\t%d\t%s\t%s\n",
				revision.ID,
				revision.UID,
				revision.Status,
				len(revision.Resources),
				revision.CreatedAt.Format("2006-01-02 15:04:05"),
				revision.Message,
			)
		}
		w.Flush()
	},
}

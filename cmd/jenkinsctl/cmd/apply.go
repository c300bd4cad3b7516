package cmd

import (
	"context"
	"errors"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/pramodksahoo/jenkins-production/internal/applogger"
	"github.com/pramodksahoo/jenkins-production/internal/descriptor"
	"github.com/pramodksahoo/jenkins-production/internal/manifests"
	"github.com/pramodksahoo/jenkins-production/internal/models"
	"github.com/pramodksahoo/jenkins-production/pkg/apply"
)

func init() {
	applyCmd.PersistentFlags().StringP("descriptor", "f", "jenkins.yaml", "deployment descriptor file")
	applyCmd.PersistentFlags().Bool("prune", false, "delete managed objects the new revision no longer renders")
	rootCmd.AddCommand(applyCmd)
}

var applyCmd = &cobra.Command{
	Use:    "apply",
	PreRun: bindCmdFlags,
	Short:  "apply the rendered desired state to the cluster and record a revision",
	Run: func(cmd *cobra.Command, args []string) {
		logger := applogger.NewLogger()
		defer logger.Sync()
		d, err := descriptor.Load(viper.GetString("descriptor"))
		if err != nil {
			logger.Error("invalid descriptor", zap.Error(err))
			os.Exit(1)
		}
		bundle, err := manifests.Render(d)
		if err != nil {
			logger.Error("failed to render bundle", zap.Error(err))
			os.Exit(1)
		}
		db, err := newDb(logger)
		if err != nil {
			logger.Error("failed to connect to revision store", zap.Error(err))
			os.Exit(1)
		}
		dc, err := apply.NewClusterClient()
		if err != nil {
			logger.Error("failed to build cluster client", zap.Error(err))
			os.Exit(1)
		}
		applier := apply.NewApplier(dc,
			models.NewRevisionModelSvc(db, logger),
			models.NewDriftModelSvc(db, logger),
			logger)
		revision, err := applier.Apply(context.Background(), d, bundle, viper.GetBool("prune"))
		if err != nil {
			if errors.Is(err, models.ErrUnchanged) {
				logger.Info("nothing to do, desired state unchanged")
				return
			}
			logger.Error("apply failed", zap.Error(err))
			os.Exit(1)
		}
		logger.Info("apply finished",
			zap.Uint("revision", revision.ID),
			zap.String("checksum", revision.Checksum))
	},
}

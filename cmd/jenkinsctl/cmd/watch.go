package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/pramodksahoo/jenkins-production/internal/applogger"
	"github.com/pramodksahoo/jenkins-production/internal/descriptor"
	"github.com/pramodksahoo/jenkins-production/internal/models"
	hsrv "github.com/pramodksahoo/jenkins-production/pkg/healthchecksrv"
	"github.com/pramodksahoo/jenkins-production/pkg/watch"
)

func init() {
	watchCmd.PersistentFlags().StringP("namespace", "n", descriptor.DefaultNamespace, "namespace the deployment lives in")
	watchCmd.PersistentFlags().String("health-addr", ":8081", "health check listen address")
	watchCmd.PersistentFlags().String("log-file", "", "rotate logs into this file instead of stderr")
	rootCmd.AddCommand(watchCmd)
}

var watchCmd = &cobra.Command{
	Use:    "watch",
	PreRun: bindCmdFlags,
	Short:  "watch the cluster for drift from the latest applied revision",
	Run: func(cmd *cobra.Command, args []string) {
		logger := applogger.NewLogger()
		if viper.GetString("log-file") != "" {
			logger = applogger.NewLoggerToFile(viper.GetString("log-file"))
		}
		db, err := newDb(logger)
		if err != nil {
			logger.Error("failed to connect to revision store", zap.Error(err))
			os.Exit(1)
		}
		watcher := watch.NewWatcher(
			viper.GetString("namespace"),
			models.NewRevisionModelSvc(db, logger),
			models.NewDriftModelSvc(db, logger),
			logger,
		)
		// start health check server
		hsrv.NewHealthCheckServer(
			viper.GetString("health-addr"), watcher, db, logger,
		).Serve()
		// start drift watcher
		watcher.Start()

		// handle interrupts
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
		for {
			select {
			case s := <-sigCh:
				logger.Info("signal received, shutting down", zap.String("signal", s.String()))
				logger.Info("bye bye 👋")
				os.Exit(0)
			}
		}
	},
}

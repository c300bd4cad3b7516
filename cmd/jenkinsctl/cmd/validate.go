package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/pramodksahoo/jenkins-production/internal/applogger"
	"github.com/pramodksahoo/jenkins-production/internal/descriptor"
)

func init() {
	validateCmd.PersistentFlags().StringP("descriptor", "f", "jenkins.yaml", "deployment descriptor file")
	validateCmd.PersistentFlags().Bool("json", false, "emit a JSON validation result")
	rootCmd.AddCommand(validateCmd)
}

var validateCmd = &cobra.Command{
	Use:    "validate",
	PreRun: bindCmdFlags,
	Short:  "validate the descriptor without rendering anything",
	Run: func(cmd *cobra.Command, args []string) {
		logger := applogger.NewLogger()
		d, err := descriptor.Load(viper.GetString("descriptor"))
		if err != nil {
			exitWithResult(logger, renderResult{Errors: []string{err.Error()}})
		}
		if viper.GetBool("json") {
			printResult(renderResult{Success: true})
			return
		}
		logger.Info("descriptor is valid",
			zap.String("topology", d.Topology.Mode),
			zap.Int32("replicas", d.Controller.Replicas),
			zap.String("host", d.Ingress.Host))
	},
}

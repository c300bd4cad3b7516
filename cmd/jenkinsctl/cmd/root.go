package cmd

import (
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

var (
	rootCmd = &cobra.Command{
		Use:   "jenkinsctl",
		Short: "Desired state toolkit for production Jenkins on Amazon EKS",
	}
)

func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

// bindCmdFlags rebinds the command's own flags right before it runs,
// subcommands share viper keys like "descriptor" and the last init
// time binding would win otherwise.
func bindCmdFlags(cmd *cobra.Command, args []string) {
	cmd.PersistentFlags().VisitAll(func(f *pflag.Flag) {
		viper.BindPFlag(f.Name, f)
	})
}

func init() {
	cobra.OnInitialize(func() {
		// setup viper
		viper.AutomaticEnv()
		viper.SetEnvPrefix("JENKINSCTL")
		viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	})
}

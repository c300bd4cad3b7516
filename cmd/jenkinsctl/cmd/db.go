package cmd

import (
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/pramodksahoo/jenkins-production/internal/models"
)

func init() {
	rootCmd.PersistentFlags().String("db-host", "localhost", "revision store host")
	rootCmd.PersistentFlags().Int("db-port", 5432, "revision store port")
	rootCmd.PersistentFlags().String("db-user", "jenkinsctl", "revision store user")
	rootCmd.PersistentFlags().String("db-password", "", "revision store password")
	rootCmd.PersistentFlags().String("db-name", "jenkinsctl", "revision store database name")
	for _, flag := range []string{"db-host", "db-port", "db-user", "db-password", "db-name"} {
		viper.BindPFlag(flag, rootCmd.PersistentFlags().Lookup(flag))
	}
}

func newDb(logger *zap.Logger) (*gorm.DB, error) {
	cfg := models.NewDbCfg(
		viper.GetString("db-host"),
		viper.GetInt("db-port"),
		viper.GetString("db-user"),
		viper.GetString("db-password"),
		viper.GetString("db-name"),
		logger,
	)
	return models.NewDb(cfg)
}

package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/pramodksahoo/jenkins-production/internal/applogger"
	"github.com/pramodksahoo/jenkins-production/internal/descriptor"
	"github.com/pramodksahoo/jenkins-production/internal/manifests"
)

// renderResult is the machine readable output of render and validate.
type renderResult struct {
	Success   bool     `json:"success"`
	Resources []string `json:"resources,omitempty"`
	Errors    []string `json:"errors,omitempty"`
}

func init() {
	renderCmd.PersistentFlags().StringP("descriptor", "f", "jenkins.yaml", "deployment descriptor file")
	renderCmd.PersistentFlags().StringP("output", "o", ".", "output directory, - for stdout")
	renderCmd.PersistentFlags().Bool("json", false, "emit a JSON render result instead of a summary")
	rootCmd.AddCommand(renderCmd)
}

var renderCmd = &cobra.Command{
	Use:    "render",
	PreRun: bindCmdFlags,
	Short:  "render the descriptor into cluster manifests and Helm values",
	Run: func(cmd *cobra.Command, args []string) {
		logger := applogger.NewLogger()
		if renderFlagsConflict(viper.GetString("output"), viper.GetBool("json")) {
			exitWithResult(logger, renderResult{Errors: []string{
				"-o - streams manifests to stdout, use --json with an output directory",
			}})
		}
		d, err := descriptor.Load(viper.GetString("descriptor"))
		if err != nil {
			exitWithResult(logger, renderResult{Errors: []string{err.Error()}})
		}
		bundle, err := manifests.Render(d)
		if err != nil {
			exitWithResult(logger, renderResult{Errors: []string{err.Error()}})
		}
		if viper.GetString("output") == "-" {
			if err := bundle.EncodeYAML(os.Stdout); err != nil {
				exitWithResult(logger, renderResult{Errors: []string{err.Error()}})
			}
			fmt.Printf("---\n# values.yaml for the Jenkins Helm chart\n%s", bundle.Values)
			return
		}
		if err := writeBundle(bundle, viper.GetString("output")); err != nil {
			exitWithResult(logger, renderResult{Errors: []string{err.Error()}})
		}
		if viper.GetBool("json") {
			printResult(renderResult{Success: true, Resources: bundle.ResourceNames()})
			return
		}
		logger.Info("bundle rendered",
			zap.String("output", viper.GetString("output")),
			zap.Strings("resources", bundle.ResourceNames()))
	},
}

// the JSON result document needs stdout for itself, it cannot share it
// with the manifest stream.
func renderFlagsConflict(output string, jsonOut bool) bool {
	return jsonOut && output == "-"
}

func writeBundle(bundle *manifests.Bundle, dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	manifestsFile, err := os.Create(filepath.Join(dir, "manifests.yaml"))
	if err != nil {
		return err
	}
	defer manifestsFile.Close()
	if err := bundle.EncodeYAML(manifestsFile); err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, "values.yaml"), bundle.Values, 0o644)
}

func printResult(result renderResult) {
	content, _ := json.MarshalIndent(result, "", "  ")
	fmt.Println(string(content))
}

func exitWithResult(logger *zap.Logger, result renderResult) {
	if viper.GetBool("json") {
		printResult(result)
		os.Exit(1)
	}
	for _, msg := range result.Errors {
		logger.Error(msg)
	}
	os.Exit(1)
}

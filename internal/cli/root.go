package cli

import (
	"fmt"
	"os"
	"strings"

	"SleepSim/internal/di"
	"SleepSim/internal/usecase"
	"SleepSim/pkg/config"
	applogger "SleepSim/pkg/logger"
	"SleepSim/pkg/metrics"
	"SleepSim/pkg/util"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "sleepctl",
	Short: "Run two-process sleep model simulations locally",
	Long: `sleepctl runs the two-process sleep regulation model without the service stack.

Process S (sleep pressure) rises while awake and decays while asleep; process C (the
circadian rhythm) shifts the thresholds that switch between the two states. Every
scenario the service knows is available here, including the ones defined in a config file.`,
	SilenceUsage: true,
}

// Flags shared by every command
var (
	configPath string
	verbose    bool
)

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file with model defaults and custom scenarios")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log state transitions to stderr")
}

// loadConfig reads --config, or struct defaults when it is unset.
func loadConfig() (*config.Config, error) {
	if configPath == "" {
		return config.Default()
	}
	return config.Load(configPath)
}

// newSimulator builds a simulator with no cache, store or publisher.
func newSimulator(cmd *cobra.Command) (*usecase.Simulator, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	registry, err := di.ProvideScenarioRegistry(cfg)
	if err != nil {
		return nil, err
	}
	l := applogger.Nop()
	if verbose {
		l = applogger.NewWriter(cmd.ErrOrStderr(), "debug")
	}
	return di.ProvideSimulator(cfg, registry, metrics.New(prometheus.NewRegistry()), l, nil, nil, nil), nil
}

// parseOverrides reads repeated name=value flags into a parameter override map.
func parseOverrides(pairs []string) (map[string]float64, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	out := make(map[string]float64, len(pairs))
	for _, pair := range pairs {
		name, raw, ok := strings.Cut(pair, "=")
		if !ok || strings.TrimSpace(name) == "" {
			return nil, fmt.Errorf("invalid override %q, want name=value", pair)
		}
		v, err := util.ParseHours(raw)
		if err != nil {
			return nil, fmt.Errorf("override %s: %w", name, err)
		}
		out[strings.TrimSpace(name)] = v
	}
	return out, nil
}

// hoursFlag returns nil for an unset flag so the configured grid default applies.
func hoursFlag(cmd *cobra.Command, name, raw string) (*float64, error) {
	if !cmd.Flags().Changed(name) {
		return nil, nil
	}
	v, err := util.ParseHours(raw)
	if err != nil {
		return nil, fmt.Errorf("--%s: %w", name, err)
	}
	return &v, nil
}

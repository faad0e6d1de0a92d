// Package config handles the global command line configuration: flag
// definitions, environment variable bindings and the shared logger.
// Configuration precedence is flags, then OTAKIT_* environment variables,
// then defaults.
package config

import (
	"runtime"
	"strings"
	"sync"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/nebulapad/otakit/common/logger"
)

const (
	LogLevelKey      = "log.level"
	LogTypeKey       = "log.type"
	LogFileKey       = "log.file"
	LogDeveloperKey  = "log.developer"
	LogMaxSizeKey    = "log.max-size"
	LogNumRotatedKey = "log.num-rotated-files"
	NumWorkersKey    = "num-workers"
	BaseDirKey       = "base-dir"
	BoardFileKey     = "board-file"
	NoProgressKey    = "no-progress"
)

// InitGlobalFlags defines the global flags on the root command and binds
// them to viper.
func InitGlobalFlags(cmd *cobra.Command) {
	pf := cmd.PersistentFlags()
	pf.Int8(LogLevelKey, 2, "Adjust the logging level (0=Fatal, 1=Error, 2=Warn, 3=Info, 4+5=Debug).")
	pf.String(LogTypeKey, "stderr", "Where log messages should be sent ('stderr', 'stdout', 'logfile').")
	pf.String(LogFileKey, "otakit.log", "The path to the desired log file when log.type is 'logfile'.")
	pf.Int(LogMaxSizeKey, 100, "When log.type is 'logfile' the maximum size of the log file in megabytes before it is rotated.")
	pf.Int(LogNumRotatedKey, 3, "When log.type is 'logfile' the maximum number of old log files to keep.")
	pf.Bool(LogDeveloperKey, false, "Enable developer logging including stack traces.")
	pf.MarkHidden(LogDeveloperKey)
	pf.Int(NumWorkersKey, runtime.GOMAXPROCS(0), "The maximum number of workers to use when a command can complete work in parallel (default: number of CPUs).")
	pf.String(BaseDirKey, ".", "Directory under which the working tree and the firmware cache are created.")
	pf.String(BoardFileKey, "", "Optional YAML board catalog overriding the built-in one.")
	pf.Bool(NoProgressKey, false, "Disable terminal progress bars.")

	// Environment variables use the flag name in capitals with dots
	// replaced by a double underscore and hyphens by an underscore, e.g.
	// OTAKIT_LOG__LEVEL=4.
	viper.SetEnvPrefix("otakit")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "__", "-", "_"))

	pf.VisitAll(func(flag *pflag.Flag) {
		viper.BindEnv(flag.Name)
		viper.BindPFlag(flag.Name, flag)
	})
}

var (
	logOnce   sync.Once
	sharedLog *logger.Logger
	logErr    error
)

// GetLogger returns the process-wide logger, building it from the bound
// configuration on first use.
func GetLogger() (*logger.Logger, error) {
	logOnce.Do(func() {
		sharedLog, logErr = logger.New(logger.Config{
			Type:            viper.GetString(LogTypeKey),
			File:            viper.GetString(LogFileKey),
			Level:           int8(viper.GetInt(LogLevelKey)),
			MaxSize:         viper.GetInt(LogMaxSizeKey),
			NumRotatedFiles: viper.GetInt(LogNumRotatedKey),
			Developer:       viper.GetBool(LogDeveloperKey),
		})
	})
	return sharedLog, logErr
}

func NumWorkers() int {
	return viper.GetInt(NumWorkersKey)
}

func BaseDir() string {
	return viper.GetString(BaseDirKey)
}

func BoardFile() string {
	return viper.GetString(BoardFileKey)
}

func ShowProgress() bool {
	return !viper.GetBool(NoProgressKey)
}

// Cleanup flushes the logger. Called once on exit.
func Cleanup() {
	if sharedLog != nil {
		sharedLog.Sync()
	}
}

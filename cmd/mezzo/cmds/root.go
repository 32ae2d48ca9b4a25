package cmds

import (
	"os"
	"path/filepath"

	"github.com/sonnayasomnambula/mezzoparser/internal/app/config"
	"github.com/sonnayasomnambula/mezzoparser/internal/pkg/logging"
	"github.com/sonnayasomnambula/mezzoparser/internal/pkg/util"

	"github.com/spf13/cobra"
	"go.uber.org/zap/zapcore"
)

var (
	cfgFile string
	logFile string
	debug   bool

	conf *config.Config
)

func init() {
	cobra.OnInitialize(initConfig)
}

func NewRootCLI() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "mezzo",
		Short:         "Compile the mezzo.tv schedule into an XMLTV guide.",
		SilenceUsage:  true,
		SilenceErrors: true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
	}

	rootCmd.AddCommand(NewGrabCLI())
	rootCmd.AddCommand(NewServeCLI())
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Path of the YAML config file.")
	rootCmd.PersistentFlags().StringVar(&logFile, "log", "", "Path of the log file. Logs go to stdout when empty.")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug logging.")

	return rootCmd
}

// initConfig sets up logging and loads the config file, writing a default
// one next to the executable on first run.
func initConfig() {
	level := zapcore.InfoLevel
	if debug {
		level = zapcore.DebugLevel
	}
	err := logging.InitLogger(&logging.LogConfig{
		Level:      level,
		FileName:   logFile,
		MaxSize:    10,
		MaxAge:     7,
		MaxBackups: 3,
		IsStdout:   logFile != "",
	})
	cobra.CheckErr(err)

	var fPath string
	if cfgFile != "" {
		fPath = cfgFile
	} else {
		cfgHome, err := util.GetCurrentAbPathByExecutable()
		cobra.CheckErr(err)

		fPath = filepath.Join(cfgHome, "config.yml")

		if _, err = os.Stat(fPath); os.IsNotExist(err) {
			err = config.CreateDefaultCfg(fPath)
			cobra.CheckErr(err)
		}
	}

	conf, err = config.Load(fPath)
	cobra.CheckErr(err)
}

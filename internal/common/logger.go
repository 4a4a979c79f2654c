package common

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/arbor/models"
)

const (
	logFileName      = "ipsa.log"
	logTimeFormat    = "15:04:05"
	logFileMaxSize   = 100 * 1024 * 1024
	logFileMaxBackup = 3
)

// InitLogger builds the arbor logger from the logging section.
// Files go to logs/ipsa.log next to the executable.
func InitLogger(config *Config) arbor.ILogger {
	logger := arbor.NewLogger()

	toFile, toConsole := logOutputs(config.Logging.Output)

	if toFile {
		if logsDir, err := logDirectory(); err != nil {
			fmt.Printf("Warning: file logging disabled: %v\n", err)
			toConsole = true
		} else {
			logger = logger.WithFileWriter(models.WriterConfiguration{
				Type:       models.LogWriterTypeFile,
				FileName:   filepath.Join(logsDir, logFileName),
				TimeFormat: logTimeFormat,
				MaxSize:    logFileMaxSize,
				MaxBackups: logFileMaxBackup,
				OutputType: models.OutputFormatLogfmt,
			})
		}
	}

	if toConsole {
		logger = logger.WithConsoleWriter(models.WriterConfiguration{
			Type:       models.LogWriterTypeConsole,
			TimeFormat: logTimeFormat,
			OutputType: models.OutputFormatLogfmt,
		})
	}

	return logger.WithLevelFromString(config.Logging.Level)
}

func logOutputs(outputs []string) (toFile, toConsole bool) {
	for _, output := range outputs {
		switch output {
		case "file":
			toFile = true
		case "stdout", "console":
			toConsole = true
		}
	}
	return toFile, toConsole
}

func logDirectory() (string, error) {
	execPath, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("failed to get executable path: %w", err)
	}
	dir := filepath.Join(filepath.Dir(execPath), "logs")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create logs directory: %w", err)
	}
	return dir, nil
}

package main

import (
	"fmt"
	"io"
	"os"

	"github.com/btcsuite/btclog"

	"github.com/suffix-labs/bitcoin-block/pkg/api"
)

// Loggers per subsystem. A single backend logger is created and all
// subsystem loggers created from it write to the backend.
var (
	backendLog = btclog.NewBackend(os.Stderr)

	log    = backendLog.Logger("BBLK")
	apiLog = backendLog.Logger("API")

	subsystemLoggers = map[string]btclog.Logger{
		"BBLK": log,
		"API":  apiLog,
	}
)

func init() {
	api.UseLogger(apiLog)
}

// useLogWriter points every subsystem logger at w.
func useLogWriter(w io.Writer) {
	backendLog = btclog.NewBackend(w)
	for id, old := range subsystemLoggers {
		logger := backendLog.Logger(id)
		logger.SetLevel(old.Level())
		subsystemLoggers[id] = logger
	}
	log = subsystemLoggers["BBLK"]
	apiLog = subsystemLoggers["API"]
	api.UseLogger(apiLog)
}

// setLogLevels sets the log level of every subsystem logger.
func setLogLevels(level string) error {
	lvl, ok := btclog.LevelFromString(level)
	if !ok {
		return fmt.Errorf("invalid debug level %q", level)
	}
	for _, logger := range subsystemLoggers {
		logger.SetLevel(lvl)
	}
	return nil
}

package logger

import (
	"os"

	"github.com/op/go-logging"
)

var format = logging.MustStringFormatter(
	`%{color}%{time:15:04:05.000} %{module} %{level:.5s}%{color:reset} %{message}`,
)

func init() {
	backend := logging.NewBackendFormatter(logging.NewLogBackend(os.Stderr, "", 0), format)
	leveled := logging.AddModuleLevel(backend)
	leveled.SetLevel(logging.INFO, "")
	logging.SetBackend(leveled)
}

// NewLogger returns a logger scoped to the given module tag. Packages
// create one at init time:
//
//	var log = logger.NewLogger("[evm]")
func NewLogger(module string) *logging.Logger {
	return logging.MustGetLogger(module)
}

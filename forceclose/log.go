package forceclose

import (
	"github.com/btcsuite/btclog/v2"
)

var log btclog.Logger = btclog.Disabled

// UseLogger sets the package-wide logger used by this package's recovery
// routines.
func UseLogger(logger btclog.Logger) {
	log = logger
}

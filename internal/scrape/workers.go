package scrape

import (
	"os"
	"strconv"
	"strings"

	"go.uber.org/zap"
)

// WorkersEnv names the environment variable holding the worker-count
// override.
const WorkersEnv = "NOVELBIND_WORKERS"

// DefaultWorkers is the pool size used when neither an explicit override nor
// a usable environment value is present.
const DefaultWorkers = 4

// ResolveWorkers picks the worker count: explicit override first, then the
// environment variable, then the default. A non-integer environment value is
// reported as a warning and replaced by the default. The result is floored
// at 1.
func ResolveWorkers(override int, logger *zap.Logger) int {
	if override > 0 {
		return override
	}

	if raw, ok := os.LookupEnv(WorkersEnv); ok {
		n, err := strconv.Atoi(strings.TrimSpace(raw))
		if err != nil {
			logger.Warn("invalid worker count in environment; using default",
				zap.String("var", WorkersEnv),
				zap.String("value", raw),
				zap.Int("default", DefaultWorkers),
			)
			return DefaultWorkers
		}
		if n < 1 {
			return 1
		}
		return n
	}

	return DefaultWorkers
}

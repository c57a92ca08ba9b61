// Command lmsctl runs administrative tasks against the classroom database.
package main

import (
	"os"

	"github.com/yigit/classroom/internal/pkg/logger"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		logger.Error().Err(err).Msg("lmsctl failed")
		os.Exit(1)
	}
}

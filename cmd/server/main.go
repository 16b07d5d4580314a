package main

import (
	"github.com/aquarisk/cras/backend/internal/server"
	"github.com/aquarisk/cras/backend/internal/util"
	"github.com/aquarisk/cras/backend/pkg/logger"
	"github.com/aquarisk/cras/backend/pkg/logger/console"

	_ "github.com/lib/pq"
)

func main() {
	util.LoadEnv()

	debug := util.GetEnvBool("DEBUG", false)

	consoleLogger := console.NewConsoleLogger(console.ConsoleLoggerParams{
		Debug: debug,
	})
	logger.Init(consoleLogger)

	server.Init()
}

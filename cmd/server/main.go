package main

import (
	"github.com/inkgraph/backend/internal/server"
	"github.com/inkgraph/backend/internal/util"
	"github.com/inkgraph/backend/pkg/logger"
	"github.com/inkgraph/backend/pkg/logger/console"

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

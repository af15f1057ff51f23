package main

import (
	"context"
	"log"
	"log/slog"
	"os"

	"github.com/modelvault/modelvault/internal/buildinfo"
	"github.com/modelvault/modelvault/internal/client/cli"
	"github.com/modelvault/modelvault/internal/client/config"
	"github.com/modelvault/modelvault/internal/logging"
)

func main() {

	buildinfo.PrintBuildData(os.Stdout)

	ctx := context.Background()
	cfg := config.LoadConfig()
	logger := logging.NewConsole(slog.LevelInfo)

	app, err := cli.NewApp(cfg, logger)
	if err != nil {
		log.Fatalf("%v", err)
		return
	}

	app.Run(ctx)
}

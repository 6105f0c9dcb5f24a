package main

import (
	"log/slog"

	"github.com/ImanSamantaCoder/Video-calling-APP/internal/cmd"
	"github.com/ImanSamantaCoder/Video-calling-APP/internal/logging"
)

func main() {
	logging.Init(slog.LevelError)
	cmd.Execute()
}

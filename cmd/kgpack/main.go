package main

import (
	"kgpack/cmd/cmd"
	"kgpack/internal/logger"
)

func main() {
	logger.Init()
	cmd.Execute()
}

package main

import (
	"os"

	"staycal/internal/commands"
	appLog "staycal/internal/log"
)

func main() {
	if err := commands.New().Execute(); err != nil {
		appLog.Error("command failed", err)
		os.Exit(1)
	}
}

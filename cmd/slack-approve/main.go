package main

import (
	"os"

	"github.com/pipegate/slack-approve/cmd/slack-approve/commands"
)

func main() {
	if err := commands.NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

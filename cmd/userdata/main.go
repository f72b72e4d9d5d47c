package main

import (
	"os"

	"github.com/JonMunkholm/userdata/cmd/userdata/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}

package main

import (
	"os"

	"funda-scraper/cmd/scraper/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}

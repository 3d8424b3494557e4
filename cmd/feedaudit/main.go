package main

import (
	"os"

	"github.com/feedaudit/feedaudit/cmd/feedaudit/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

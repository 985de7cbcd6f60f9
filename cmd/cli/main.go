package main

import (
	"os"

	"github.com/ugel-satipo/portal/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}

package main

import (
	"os"

	"formgrid/pkg/cli"
)

func main() {
	os.Exit(cli.Execute())
}

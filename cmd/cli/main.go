// Package main is the entry point for the schemasync CLI binary.
package main

import (
	"os"

	cli "schemasync/pkg/cli"
)

func main() {
	os.Exit(cli.Execute())
}

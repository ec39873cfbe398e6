// Package main is the entry point for the codegraph CLI.
package main

import (
	"github.com/arcbyte/codegraph/internal/cmd"
)

func main() {
	cmd.Execute()
}

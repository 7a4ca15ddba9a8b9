// Package main is the entry point for the datasage application
package main

import (
	"github.com/ethpandaops/datasage/cmd"
)

func main() {
	cmd.Execute()
}

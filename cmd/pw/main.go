// Package main is the entry point for the pw CLI client.
package main

import (
	"github.com/ecwatch/pricewatch/cmd/pw/cmd"
)

func main() {
	cmd.Execute()
}

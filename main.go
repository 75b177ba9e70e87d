// Package main is the entry point for the oriel application.
package main

import (
	"github.com/samber/lo"

	"github.com/oriel-video/oriel/cmd"
	"github.com/oriel-video/oriel/config"
	"github.com/oriel-video/oriel/log"
)

func main() {
	lo.Must0(config.Setup())
	lo.Must0(log.Setup())

	cmd.Execute()
}

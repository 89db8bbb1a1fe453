package main

import (
	"go.uber.org/automaxprocs/maxprocs"

	"modforge/internal/cli"
)

func main() {
	_, _ = maxprocs.Set()
	cli.Execute()
}

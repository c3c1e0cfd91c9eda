package main

import (
	"github.com/Paintersrp/spawny/internal/cli"
	"github.com/Paintersrp/spawny/internal/metrics"
)

func main() {
	metrics.EmitBuildInfo()
	cli.Execute()
}

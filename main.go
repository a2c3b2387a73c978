package main

import (
	"github.com/dyike/EquityGo/internal/cli"
)

func main() {
	cli.Run()
}

package main

import (
	"github.com/addynamo/surge-alerts/internal/cli"
)

func main() {
	cli.Execute()
}

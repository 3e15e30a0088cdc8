package main

import (
	"github.com/triadbank/ledger-core/cli"
)

var (
	// AppName is the application name
	AppName = "ledger-core"

	// Version is the app version
	Version = "v1.0.2"
)

func main() {
	cli.Execute(AppName, Version)
}

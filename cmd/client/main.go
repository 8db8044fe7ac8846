package main

import "messenger/internal/client/cli"

// ServerURL should be injected via ldflags. Default for dev.
var ServerURL = "http://localhost:8080"

func main() {
	cli.Init(ServerURL)
	cli.Execute()
}

package main

import "mitaict-site/internal/cli"

func main() {
	cli.Execute()
}

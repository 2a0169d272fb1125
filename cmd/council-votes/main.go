package main

import "github.com/pfrederiksen/council-votes/internal/cli"

func main() {
	cli.Execute()
}

package main

import "github.com/voxjournal/voxjournal/internal/client/cli"

func main() {
	cli.Execute()
}

package main

import "github.com/mcoot/playerregistry/internal/cli"

func main() {
	cli.Execute()
}

package main

import "github.com/strumspace/strumspace/internal/cli"

func main() {
	cli.Execute()
}

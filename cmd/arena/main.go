package main

import "github.com/mcoot/battlearena/internal/cli"

func main() {
	cli.Execute()
}

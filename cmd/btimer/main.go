package main

import "github.com/mcoot/bouncetimer/internal/cli"

func main() {
	cli.Execute()
}

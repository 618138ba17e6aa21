package main

import "github.com/pop-sh/pop/internal/cli"

func main() {
	cli.Execute()
}

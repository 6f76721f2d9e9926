package main

import "futureswatch/internal/cli"

func main() {
	cli.Execute()
}

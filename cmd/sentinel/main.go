package main

import "crypto-sentinel/internal/cli"

func main() {
	cli.Execute()
}

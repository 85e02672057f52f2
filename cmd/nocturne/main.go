package main

import "github.com/binhbb2204/nocturne/cli"

func main() {
	cli.Execute()
}

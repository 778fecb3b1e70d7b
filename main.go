package main

import "github.com/ByLCY/platecut/cli"

func main() {
	cli.Execute()
}

package main

import "github.com/chaos-io/rembg/cli"

func main() {
	cli.Execute()
}

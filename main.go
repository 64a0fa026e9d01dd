package main

import "github.com/tt-npe/npe-go/cmd"

func main() {
	cmd.Execute()
}

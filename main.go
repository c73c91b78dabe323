package main

import "github.com/frostgate/relayer/cmd"

func main() {
	cmd.Execute()
}

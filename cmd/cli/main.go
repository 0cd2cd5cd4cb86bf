package main

import "github.com/jkoufopoulos/shopq-prototype-sub002/cmd/cli/cmd"

func main() {
	cmd.Execute()
}

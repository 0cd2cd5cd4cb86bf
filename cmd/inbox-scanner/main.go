package main

import "github.com/jkoufopoulos/shopq-prototype-sub002/cmd/inbox-scanner/cmd"

func main() {
	cmd.Execute()
}

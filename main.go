package main

import "github.com/tanq16/hauler/cmd"

func main() {
	cmd.Execute()
}

package main

import "go-buildmart/commands"

func main() {
	commands.Execute()
}

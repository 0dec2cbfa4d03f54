package main

import "github.com/agentic-research/populate/cmd"

func main() {
	cmd.Execute()
}

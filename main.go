package main

import "github.com/agentic-research/codemods/cmd"

func main() {
	cmd.Execute()
}

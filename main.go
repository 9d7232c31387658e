package main

import "github.com/linesmerrill/police-investigations-api/cmd"

func main() {
	cmd.Execute()
}

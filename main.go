package main

import "github.com/bradford-hamilton/hackvm/cmd"

func main() {
	cmd.Execute()
}

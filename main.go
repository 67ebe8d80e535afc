package main

import "github.com/killallgit/tessera/cmd"

func main() {
	cmd.Execute()
}

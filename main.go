package main

import "github.com/jcdickinson/cratemap/cmd"

func main() {
	cmd.Execute()
}

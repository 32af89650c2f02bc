package main

import "github.com/go-cribo/cribo/cmd"

func main() {
	cmd.Execute()
}

package main

import "reattach/cmd"

func main() {
	cmd.Execute()
}

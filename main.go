package main

import "haven/cmd"

func main() {
	cmd.Execute()
}

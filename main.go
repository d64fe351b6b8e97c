package main

import "musiclib/cmd"

func main() {
	cmd.Execute()
}

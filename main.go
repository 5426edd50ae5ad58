package main

import "github.com/bz888/gramfix/cmd"

func main() {
	cmd.Execute()
}

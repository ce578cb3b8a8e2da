package main

import "github.com/iksnae/agrichat/cmd"

func main() {
	cmd.Execute()
}

package main

import "github.com/theirongolddev/rab/cmd"

func main() {
	cmd.Execute()
}

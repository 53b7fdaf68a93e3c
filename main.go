package main

import "github.com/chrisuehlinger/vibedom/cmd"

func main() {
	cmd.Execute()
}

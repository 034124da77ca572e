// Command judgectl administers an online-judge platform from the terminal.
package main

import "github.com/openjudge/judgectl/cmd/judgectl/cmd"

func main() {
	cmd.Execute()
}

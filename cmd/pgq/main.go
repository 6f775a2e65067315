package main

import "git.canoozie.net/riddling/pipegraph/cmd/pgq/commands"

func main() {
	commands.Execute()
}

package main

import "github.com/Togather-Foundation/localevents/cmd/server/cmd"

func main() {
	cmd.Execute()
}

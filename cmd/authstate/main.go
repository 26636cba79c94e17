package main

import "github.com/goliatone/go-auth-state/cmd/authstate/cmd"

func main() {
	cmd.Execute()
}

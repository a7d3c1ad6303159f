package main

import (
	"prestoassist-backend/cmd/presto-cli/cmd"
)

func main() {
	cmd.Execute()
}

package main

import (
	"github.com/selendra/selendra-finality/cmd/fork-off/cmd"
)

func main() {
	cmd.Execute()
}

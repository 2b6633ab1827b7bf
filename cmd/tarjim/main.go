package main

import (
	"github.com/tarjim/tarjim/cmd/tarjim/cmd"
)

func main() {
	cmd.Execute()
}

package main

import (
	"github.com/AzielCF/az-ravena/cmd"
)

func main() {
	cmd.Execute()
}

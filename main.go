package main

import (
	"clipcut/cmd"
)

func main() {
	cmd.Execute()
}

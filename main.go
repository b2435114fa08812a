package main

import "github.com/deploymenttheory/go-vboot/cmd"

func main() {
	cmd.Execute()
}

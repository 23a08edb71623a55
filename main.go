package main

import "mspro-labs/bol-lister/cmd"

func main() {
	cmd.Execute()
}

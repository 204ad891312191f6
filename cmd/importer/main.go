package main

import "pos-backoffice/cmd/importer/cmd"

func main() {
	cmd.Execute()
}

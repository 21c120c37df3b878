package main

import "gitlab.com/vtindex/backoffice_api/cmd"

func main() {
	cmd.Execute()
}

package main

import "pi-account-checker/cmd"

func main() {
	cmd.Execute()
}

package main

import "github.com/evfalk/refund-helper/internal/cmd"

func main() {
	cmd.Execute()
}

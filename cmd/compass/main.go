package main

import "compass/cmd/compass/root"

func main() {
	root.Execute()
}

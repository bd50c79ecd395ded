package main

import "github.com/notargets/godeform/cmd"

func main() {
	cmd.Execute()
}

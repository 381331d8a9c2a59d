package main

import "github.com/KaramelBytes/paraprep/cmd"

func main() {
	cmd.Execute()
}

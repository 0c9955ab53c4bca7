package main

import "github.com/MeKo-Tech/vistext/cmd/vistext/cmd"

func main() {
	cmd.Execute()
}

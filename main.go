package main

import "github.com/shouni/go-admission-watch/cmd"

func main() {
	cmd.Execute()
}

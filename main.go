package main

import "github.com/shouni/race-result-pipe-go/cmd"

func main() {
	cmd.Execute()
}

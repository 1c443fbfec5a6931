package main

import "github.com/webpack-chart/cmd/cli/cmd"

func main() {
	cmd.Execute()
}

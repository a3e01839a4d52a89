package main

import "github.com/quentinrf/glucose-log/internal/cli"

func main() {
	cli.Main()
}

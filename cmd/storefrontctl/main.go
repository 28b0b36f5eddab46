package main

import "github.com/DrewGalowayDev/Awesome/internal/cli"

func main() {
	cli.Execute()
}

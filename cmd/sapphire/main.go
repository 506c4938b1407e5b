package main

import "github.com/sapphirepm/sapphire/cmd/sapphire/internal"

func main() {
	internal.Execute()
}

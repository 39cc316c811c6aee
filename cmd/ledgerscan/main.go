package main

import "github.com/MeKo-Tech/ledgerscan/cmd/ledgerscan/cmd"

func main() {
	cmd.Execute()
}

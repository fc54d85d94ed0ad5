package main

import (
	"github.com/vietddude/crmsync/internal/cli"
)

func main() {
	cli.Execute()
}

package main

import "gopherai-rag/internal/cli"

func main() {
	cli.Execute()
}

package main

import (
	cmd "github.com/JPArangoRenteria/sitegraph/internal/cli"
)

func main() {
	cmd.Execute()
}

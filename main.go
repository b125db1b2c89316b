package main

import "erp-admin/internal/cli"

func main() {
	cli.Execute()
}

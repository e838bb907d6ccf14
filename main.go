package main

import "github.com/vibast-solutions/ms-go-bankpay/cmd"

func main() {
	cmd.Execute()
}

package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "bankpay",
	Short: "Bank payment gateway microservice",
	Long:  "A microservice that requests, verifies, and refunds payments through Iranian bank gateways.",
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

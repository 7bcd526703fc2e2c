package main

import (
	"fmt"
	"os"
)

func main() {
	rootCmd.AddCommand(startCmd)
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(keygenCmd)
	rootCmd.AddCommand(showValidatorCmd)
	rootCmd.AddCommand(queryCmd)
	rootCmd.AddCommand(memberCmd)
	rootCmd.AddCommand(proposalCmd)
	rootCmd.AddCommand(projectCmd)
	rootCmd.AddCommand(tokenCmd)
	rootCmd.AddCommand(sendCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

package main

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
)

var (
	//logrus as a global var
	log = logrus.New()
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

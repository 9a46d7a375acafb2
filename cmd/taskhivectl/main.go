// Command taskhivectl administers a TaskHive deployment: schema migrations
// for the Postgres backend and account provisioning.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd(defaultEnv()).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

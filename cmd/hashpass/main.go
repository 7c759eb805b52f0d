// Command hashpass prints the bcrypt hash of a passphrase for the OPERATORS
// variable.  With --address it prints the whole address=hash entry.  The
// passphrase is read from stdin so it does not end up in shell history.
package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/pflag"
	"golang.org/x/crypto/bcrypt"

	"github.com/iliyamo/ticket-registry/internal/registry"
	"github.com/iliyamo/ticket-registry/internal/utils"
)

func main() {
	cost := pflag.IntP("cost", "c", bcrypt.DefaultCost, "bcrypt cost factor")
	address := pflag.StringP("address", "a", "", "account the passphrase belongs to")
	pflag.Parse()

	var addr registry.Address
	if *address != "" {
		a, err := registry.ParseAddress(*address)
		if err != nil || a.IsZero() {
			fmt.Fprintf(os.Stderr, "hashpass: invalid address %q\n", *address)
			os.Exit(2)
		}
		addr = a
	}

	if *cost < bcrypt.MinCost || *cost > bcrypt.MaxCost {
		fmt.Fprintf(os.Stderr, "hashpass: cost must be between %d and %d\n", bcrypt.MinCost, bcrypt.MaxCost)
		os.Exit(2)
	}

	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && line == "" {
		fmt.Fprintf(os.Stderr, "hashpass: read passphrase: %v\n", err)
		os.Exit(1)
	}
	pass := strings.TrimRight(line, "\r\n")
	if pass == "" {
		fmt.Fprintln(os.Stderr, "hashpass: empty passphrase")
		os.Exit(1)
	}

	hash, err := utils.HashPassword(pass, *cost)
	if err != nil {
		fmt.Fprintf(os.Stderr, "hashpass: %v\n", err)
		os.Exit(1)
	}
	if addr.IsZero() {
		fmt.Println(hash)
		return
	}
	fmt.Printf("%s=%s\n", addr.Hex(), hash)
}

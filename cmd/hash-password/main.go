// hash-password prints the bcrypt hash for a password, for pasting into the
// user directory sheet. New rows should carry hashes so the plaintext
// fallback can eventually be switched off.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/mmdatafocus/procurement_backend/utils"
)

func main() {
	flag.Parse()
	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: hash-password <password>")
		os.Exit(1)
	}

	hash, err := utils.HashPassword(flag.Arg(0))
	if err != nil {
		fmt.Fprintln(os.Stderr, "hash:", err)
		os.Exit(1)
	}
	fmt.Println(string(hash))
}

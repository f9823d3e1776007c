package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"strings"

	"mockexam/internal/auth"

	"github.com/sirupsen/logrus"
)

// hashtoken prints a bcrypt hash for ADMIN_TOKEN_HASH. The token is read from
// -token or, when omitted, from the first line of stdin.
func main() {
	token := flag.String("token", "", "admin token to hash")
	cost := flag.Int("cost", 0, "bcrypt cost (default 10)")
	flag.Parse()

	value := *token
	if value == "" {
		line, err := bufio.NewReader(os.Stdin).ReadString('\n')
		if err != nil && line == "" {
			logrus.WithError(err).Fatal("read token from stdin")
		}
		value = strings.TrimSpace(line)
	}

	hash, err := auth.HashToken(value, *cost)
	if err != nil {
		logrus.WithError(err).Fatal("hash token")
	}
	fmt.Println(hash)
}

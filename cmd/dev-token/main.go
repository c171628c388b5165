package main

// dev-token mints a bearer token for poking the console API locally or
// from the staging frontend. Signs with API_SECRET, same as the server.
//
// Usage:
//   API_SECRET=... go run ./cmd/dev-token -user-id 7 -name "Aye Chan" -hours 24

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"

	"bitbucket.org/mmdatafocus/transfer_console/utils"
)

func main() {
	userId := flag.Int("user-id", 1, "user id claim")
	name := flag.String("name", "dev", "user name claim")
	hours := flag.Int("hours", 24, "token lifespan in hours")
	flag.Parse()

	// JwtGenerate reads the lifespan from env; the flag wins here.
	os.Setenv("TOKEN_HOUR_LIFESPAN", strconv.Itoa(*hours))

	token, err := utils.JwtGenerate(*userId, *name)
	if err != nil {
		log.Fatalf("generate token: %v", err)
	}
	fmt.Println(token)
}

// Command initdata prints a signed identity assertion for local testing of
// POST /api/session.
//
//	initdata -b <bot token> -id 42 -first Ann -user ann
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/dmitrijs2005/tgledger/internal/server/auth"
	"github.com/dmitrijs2005/tgledger/internal/server/models"
)

func main() {
	var (
		botToken string
		claims   models.IdentityClaims
	)

	fs := flag.NewFlagSet("initdata", flag.ExitOnError)
	fs.StringVar(&botToken, "b", os.Getenv("LEDGER_BOT_TOKEN"), "bot token")
	fs.Int64Var(&claims.ID, "id", 0, "identity id")
	fs.StringVar(&claims.FirstName, "first", "", "first name")
	fs.StringVar(&claims.LastName, "last", "", "last name")
	fs.StringVar(&claims.Username, "user", "", "username")
	fs.StringVar(&claims.LanguageCode, "lang", "en", "language code")
	_ = fs.Parse(os.Args[1:])

	if botToken == "" || claims.ID == 0 {
		fs.Usage()
		os.Exit(2)
	}

	user, err := json.Marshal(claims)
	if err != nil {
		log.Fatalf("marshal user: %v", err)
	}

	fmt.Println(auth.SignInitData(map[string]string{
		"auth_date": strconv.FormatInt(time.Now().Unix(), 10),
		"user":      string(user),
	}, botToken))
}

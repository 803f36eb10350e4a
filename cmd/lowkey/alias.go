package main

import (
	"math/rand"

	"github.com/jaevor/go-nanoid"
)

// Alias pool for anonymous messages, shared with the LOWKEY client.
var aliasPool = []string{"anon", "npc", "ghost", "void", "user", "quiet", "lowkey"}

var aliasDigits = func() func() string {
	gen, err := nanoid.CustomASCII("0123456789", 3)
	if err != nil {
		panic(err)
	}
	return gen
}()

// newLowkeyAlias produces display names like "ghost_042".
func newLowkeyAlias() string {
	return aliasPool[rand.Intn(len(aliasPool))] + "_" + aliasDigits()
}

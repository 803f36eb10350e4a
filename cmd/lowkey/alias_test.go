package main

import (
	"regexp"
	"testing"
)

func TestNewLowkeyAlias_Shape(t *testing.T) {
	re := regexp.MustCompile(`^(anon|npc|ghost|void|user|quiet|lowkey)_\d{3}$`)
	for i := 0; i < 100; i++ {
		alias := newLowkeyAlias()
		if !re.MatchString(alias) {
			t.Fatalf("newLowkeyAlias() = %q, want <pool>_<3 digits>", alias)
		}
	}
}

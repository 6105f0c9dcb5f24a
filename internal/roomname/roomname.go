// Package roomname generates memorable room names such as
// "sleepy-otter-waffle-comet".
package roomname

import (
	"crypto/rand"
	"math/big"
	"strings"
)

var pools = [][]string{adjectives, animals, dishes, things}

// Generate returns a random room name built from one word of each pool,
// adjective first. Taken reports names already in use; pass nil to accept
// any name.
func Generate(taken func(string) bool) (string, error) {
	for {
		words := make([]string, len(pools))
		for i, pool := range pools {
			idx, err := randomIndex(len(pool))
			if err != nil {
				return "", err
			}
			words[i] = pool[idx]
		}

		name := strings.Join(words, "-")
		if taken == nil || !taken(name) {
			return name, nil
		}
	}
}

// randomIndex returns a cryptographically secure random index below n.
func randomIndex(n int) (int, error) {
	v, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		return 0, err
	}
	return int(v.Int64()), nil
}

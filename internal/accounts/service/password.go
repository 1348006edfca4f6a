package service

import (
	"crypto/rand"
	"math/big"
	"strings"
)

const (
	passwordLength = 14

	lowerChars  = "abcdefghijkmnpqrstuvwxyz"
	upperChars  = "ABCDEFGHJKLMNPQRSTUVWXYZ"
	digitChars  = "23456789"
	symbolChars = "!@#$%&*?"
)

var passwordClasses = []string{lowerChars, upperChars, digitChars, symbolChars}

// GeneratePassword returns a random password containing every character
// class at least once.
func GeneratePassword() (string, error) {
	all := strings.Join(passwordClasses, "")
	out := make([]byte, passwordLength)
	for i, class := range passwordClasses {
		c, err := pick(class)
		if err != nil {
			return "", err
		}
		out[i] = c
	}
	for i := len(passwordClasses); i < passwordLength; i++ {
		c, err := pick(all)
		if err != nil {
			return "", err
		}
		out[i] = c
	}
	// shuffle so the guaranteed classes are not always up front
	for i := len(out) - 1; i > 0; i-- {
		j, err := rand.Int(rand.Reader, big.NewInt(int64(i+1)))
		if err != nil {
			return "", err
		}
		out[i], out[j.Int64()] = out[j.Int64()], out[i]
	}
	return string(out), nil
}

func pick(chars string) (byte, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(int64(len(chars))))
	if err != nil {
		return 0, err
	}
	return chars[n.Int64()], nil
}

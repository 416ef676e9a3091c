package room

import (
	"math/rand"
	"regexp"
)

const codeLength = 6

var codeChars = []rune("ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789")

var codePattern = regexp.MustCompile(`^[A-Z0-9]{6}$`)

// GenerateCode creates a random 6-character uppercase alphanumeric room
// code. It retries until taken reports the code as unused.
func GenerateCode(taken func(code string) bool) string {
	for {
		code := randomCode()
		if taken == nil || !taken(code) {
			return code
		}
	}
}

// IsValidCode reports whether code has the room code format.
func IsValidCode(code string) bool {
	return codePattern.MatchString(code)
}

func randomCode() string {
	b := make([]rune, codeLength)
	for i := range b {
		b[i] = codeChars[rand.Intn(len(codeChars))]
	}
	return string(b)
}

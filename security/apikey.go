package security

import "github.com/99-kofi/Obala-Twi-API/util"

const keySize = 24

// MakeAPIKey generates a fresh API key for a new user. Keys are 24
// random bytes hex encoded, so 48 characters on the wire
func MakeAPIKey() (string, error) {
	return util.GenerateToken(keySize)
}

// Package crypto provides password hashing and verification.
//
// New hashes use salted, iterated PBKDF2-SHA256 in the werkzeug layout
// "pbkdf2:sha256:<iterations>$<salt>$<hex digest>", so accounts created by
// older deployments of the site keep working. bcrypt hashes are still accepted
// on verification.
package crypto

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"

	"github.com/inkpost/blog/util/random"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/crypto/pbkdf2"
)

const (
	pbkdf2Method = "pbkdf2:sha256"
	saltLength   = 8
	keyLength    = sha256.Size
)

// Iterations is the PBKDF2 work factor for new hashes.
var Iterations = 600000

// HashPassword generates a salted PBKDF2-SHA256 hash of the given password.
func HashPassword(password string) (string, error) {
	if password == "" {
		return "", fmt.Errorf("password can not be empty")
	}
	salt := random.Seq(saltLength)
	digest := pbkdf2Digest(password, salt, Iterations)
	return fmt.Sprintf("%s:%d$%s$%s", pbkdf2Method, Iterations, salt, digest), nil
}

// HashPasswordAsBcrypt generates a bcrypt hash of the given password.
func HashPasswordAsBcrypt(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(hash), err
}

// CheckPasswordHash verifies if the given password matches the stored hash.
func CheckPasswordHash(hash, password string) bool {
	if strings.HasPrefix(hash, "$2") {
		return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
	}

	method, salt, digest, ok := splitHash(hash)
	if !ok {
		return false
	}
	iterations, ok := parseMethod(method)
	if !ok {
		return false
	}
	want := pbkdf2Digest(password, salt, iterations)
	return hmac.Equal([]byte(want), []byte(digest))
}

func pbkdf2Digest(password, salt string, iterations int) string {
	key := pbkdf2.Key([]byte(password), []byte(salt), iterations, keyLength, sha256.New)
	return hex.EncodeToString(key)
}

func splitHash(hash string) (method, salt, digest string, ok bool) {
	parts := strings.SplitN(hash, "$", 3)
	if len(parts) != 3 {
		return "", "", "", false
	}
	return parts[0], parts[1], parts[2], true
}

// parseMethod accepts "pbkdf2:sha256" and "pbkdf2:sha256:<iterations>".
func parseMethod(method string) (int, bool) {
	if method == pbkdf2Method {
		return 260000, true
	}
	rest, found := strings.CutPrefix(method, pbkdf2Method+":")
	if !found {
		return 0, false
	}
	iterations, err := strconv.Atoi(rest)
	if err != nil || iterations <= 0 {
		return 0, false
	}
	return iterations, true
}

// Package gravatar builds avatar image URLs for commenters.
package gravatar

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"net/url"
	"strings"
)

const baseURL = "https://www.gravatar.com/avatar/"

// Options mirror the query parameters the Gravatar service accepts.
type Options struct {
	Size     int
	Rating   string
	Default  string
	ForceDef bool
}

// DefaultOptions are the settings used for comment avatars.
var DefaultOptions = Options{
	Size:    100,
	Rating:  "g",
	Default: "retro",
}

// Hash returns the md5 hex digest of the normalized email.
func Hash(email string) string {
	sum := md5.Sum([]byte(strings.ToLower(strings.TrimSpace(email))))
	return hex.EncodeToString(sum[:])
}

// URL returns the avatar URL for email using opts.
func URL(email string, opts Options) string {
	q := url.Values{}
	if opts.Size > 0 {
		q.Set("s", fmt.Sprint(opts.Size))
	}
	if opts.Rating != "" {
		q.Set("r", opts.Rating)
	}
	if opts.Default != "" {
		q.Set("d", opts.Default)
	}
	if opts.ForceDef {
		q.Set("f", "y")
	}
	u := baseURL + Hash(email)
	if enc := q.Encode(); enc != "" {
		u += "?" + enc
	}
	return u
}

// For returns the avatar URL for email with DefaultOptions.
func For(email string) string {
	return URL(email, DefaultOptions)
}

package util

import (
	"crypto/rand"
	"math/big"

	"github.com/pkg/errors"
)

const alnumChars = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"

// RandomString returns n characters drawn uniformly from [0-9A-Za-z].
// Used for generated slugs and for edit passwords handed back to
// anonymous creators.
func RandomString(n int) (string, error) {
	out := make([]byte, n)
	max := big.NewInt(int64(len(alnumChars)))
	for i := range out {
		idx, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", errors.Wrap(err, "rand fail")
		}
		out[i] = alnumChars[idx.Int64()]
	}
	return string(out), nil
}

// GenSlug generates a random slug, retrying through the exists callback
// until an unused one is found.
func GenSlug(n int, exists func(string) (bool, error)) (string, error) {
	for retry := 0; retry < 5; retry++ {
		s, err := RandomString(n)
		if err != nil {
			return "", err
		}
		exist, err := exists(s)
		if err != nil {
			return "", err
		}
		if !exist {
			return s, nil
		}
	}
	return "", errors.New("slug collision after 5 retries")
}

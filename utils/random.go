package utils

import (
	"crypto/rand"
)

const (
	letterCharset = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	alnumCharset  = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

// ConfirmationCode returns a ticket confirmation code: two letters followed
// by six alphanumerics, e.g. "QX7A2K9M".
func ConfirmationCode() (string, error) {
	buf := make([]byte, 8)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}

	for i := 0; i < 2; i++ {
		buf[i] = letterCharset[int(buf[i])%len(letterCharset)]
	}
	for i := 2; i < 8; i++ {
		buf[i] = alnumCharset[int(buf[i])%len(alnumCharset)]
	}

	return string(buf), nil
}

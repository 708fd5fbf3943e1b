package service

import (
	"crypto/rand"
	"math/big"
	"strings"
)

const (
	CertificateIDPrefix = "CERT-"
	certificateIDLength = 9
	idAlphabet          = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"
)

// IDGenerator produces candidate certificate identifiers. Uniqueness is
// checked by the registry, not the generator.
type IDGenerator func() (string, error)

// RandomCertificateID returns "CERT-" followed by nine upper-case base36
// characters drawn from crypto/rand.
func RandomCertificateID() (string, error) {
	var b strings.Builder
	b.WriteString(CertificateIDPrefix)
	max := big.NewInt(int64(len(idAlphabet)))
	for i := 0; i < certificateIDLength; i++ {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		b.WriteByte(idAlphabet[n.Int64()])
	}
	return b.String(), nil
}

package booking

import (
	"crypto/rand"
	"math/big"
)

// ReferenceGenerator produces booking reference candidates. Uniqueness is
// checked by the coordinator.
type ReferenceGenerator interface {
	Next() (string, error)
}

const referenceAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

type randomReferences struct {
	prefix string
	length int
}

// NewReferenceGenerator returns prefix followed by six random characters from [A-Z0-9].
func NewReferenceGenerator(prefix string) ReferenceGenerator {
	return randomReferences{prefix: prefix, length: 6}
}

func (g randomReferences) Next() (string, error) {
	buf := make([]byte, 0, len(g.prefix)+g.length)
	buf = append(buf, g.prefix...)
	max := big.NewInt(int64(len(referenceAlphabet)))
	for i := 0; i < g.length; i++ {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		buf = append(buf, referenceAlphabet[n.Int64()])
	}
	return string(buf), nil
}

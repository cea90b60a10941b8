package grammar

import (
	"github.com/cnf/structhash"
	spec "github.com/nihei9/lalrgen/spec/grammar"
)

const fingerprintVersion = 1

// Fingerprint hashes a parsing table. Compiling the same grammar twice yields the same
// fingerprint.
func Fingerprint(tab *spec.ParsingTable) (string, error) {
	return structhash.Hash(tab, fingerprintVersion)
}

package chain

import (
	"github.com/mr-tron/base58"
	"golang.org/x/crypto/blake2b"
)

// ss58ChecksumTag prefixes every checksum preimage in the SS58 scheme.
const ss58ChecksumTag = "SS58PRE"

// SS58Address renders a 32-byte account under the given network prefix.
// Display only: no computation in the monitor consumes the result.
func SS58Address(account [32]byte, prefix uint8) string {
	data := make([]byte, 0, 1+len(account)+2)
	data = append(data, prefix)
	data = append(data, account[:]...)

	h, _ := blake2b.New512(nil)
	h.Write([]byte(ss58ChecksumTag))
	h.Write(data)
	sum := h.Sum(nil)

	return base58.Encode(append(data, sum[0], sum[1]))
}

// Package chain derives funding-tank accounts, formats addresses for
// display, and implements the on-chain data source used by the monitor.
package chain

import (
	"encoding/binary"

	"golang.org/x/crypto/blake2b"

	"github.com/papermoonio/credits-monitor/internal/domain"
)

// tankAccountTag is the domain-separation tag of the services-payment
// pallet. The runtime derives each container chain's funding tank from this
// same tag, so any change here silently points queries at the wrong account.
const tankAccountTag = "modlpy/serpayment"

// DeriveTankAccount maps a para ID to its 32-byte funding-tank account:
// blake2b-256 over the pallet tag concatenated with the little-endian
// encoding of the ID. Deterministic and total over all uint32 inputs.
func DeriveTankAccount(id domain.ParaID) [32]byte {
	buf := make([]byte, 0, len(tankAccountTag)+4)
	buf = append(buf, tankAccountTag...)
	buf = binary.LittleEndian.AppendUint32(buf, uint32(id))
	return blake2b.Sum256(buf)
}

package registry

import (
	"encoding/hex"
	"strings"

	"golang.org/x/crypto/sha3"
)

// AddressLength is the number of bytes in an account address.
const AddressLength = 20

// Address identifies a principal: the admin, a caller or a ticket owner.
// The zero value is the null address and is never a valid recipient.
type Address [AddressLength]byte

// ZeroAddress is the null principal.
var ZeroAddress Address

// ParseAddress parses the 0x-prefixed hex form of an address.  Any letter
// case is accepted and checksums are not enforced.
func ParseAddress(s string) (Address, error) {
	var a Address
	s = strings.TrimSpace(s)
	if len(s) != 2+2*AddressLength || !(strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X")) {
		return a, ErrInvalidAddress
	}
	if _, err := hex.Decode(a[:], []byte(s[2:])); err != nil {
		return ZeroAddress, ErrInvalidAddress
	}
	return a, nil
}

// MustParseAddress is like ParseAddress but panics on malformed input.
// Intended for constants and tests.
func MustParseAddress(s string) Address {
	a, err := ParseAddress(s)
	if err != nil {
		panic("registry: invalid address " + s)
	}
	return a
}

// IsZero reports whether a is the null address.
func (a Address) IsZero() bool { return a == ZeroAddress }

// Hex returns the EIP-55 checksummed form of the address.
func (a Address) Hex() string {
	lower := hex.EncodeToString(a[:])
	h := sha3.NewLegacyKeccak256()
	h.Write([]byte(lower))
	digest := h.Sum(nil)

	out := []byte(lower)
	for i := range out {
		if out[i] < 'a' {
			continue
		}
		// nibble i of the digest decides the case of hex digit i
		nibble := digest[i/2]
		if i%2 == 0 {
			nibble >>= 4
		}
		if nibble&0x0f >= 8 {
			out[i] -= 'a' - 'A'
		}
	}
	return "0x" + string(out)
}

func (a Address) String() string { return a.Hex() }

// MarshalText implements encoding.TextMarshaler so addresses render as hex
// strings in JSON payloads.
func (a Address) MarshalText() ([]byte, error) { return []byte(a.Hex()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (a *Address) UnmarshalText(b []byte) error {
	parsed, err := ParseAddress(string(b))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

package schema

import (
	"encoding/hex"

	"github.com/mr-tron/base58"
)

// IsHex reports whether s is a non-empty, even-length hex string.
// Upper and lower case are both accepted; the string must round-trip
// through byte decoding.
func IsHex(s string) bool {
	if s == "" || len(s)%2 != 0 {
		return false
	}
	_, err := hex.DecodeString(s)
	return err == nil
}

// IsNumericString reports whether s is a non-empty unsigned decimal
// number string without sign, spaces, or leading zeros (a bare "0"
// is allowed).
func IsNumericString(s string) bool {
	if s == "" {
		return false
	}
	if len(s) > 1 && s[0] == '0' {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// bech32 data charset, per BIP-0173.
const bech32Charset = "qpzry9x8gf2tvdw0s3jn54khce6mua7l"

// IsAddress reports whether s looks like a known settlement ledger
// address encoding: a base58 payload of version 0x00 or 0x05, a
// bech32 address with an accepted prefix, or a 64-character hex
// public key (the fallback for identity-addressed subnets).
func IsAddress(s string) bool {
	if len(s) == 64 && IsHex(s) {
		return true
	}
	if isBase58Address(s) {
		return true
	}
	return isBech32Address(s)
}

func isBase58Address(s string) bool {
	if len(s) < 26 || len(s) > 35 {
		return false
	}
	raw, err := base58.Decode(s)
	if err != nil || len(raw) != 25 {
		return false
	}
	return raw[0] == 0x00 || raw[0] == 0x05
}

func isBech32Address(s string) bool {
	if len(s) < 14 || len(s) > 74 {
		return false
	}
	var hrp string
	switch {
	case len(s) > 3 && s[:3] == "bc1":
		hrp = s[3:]
	case len(s) > 3 && s[:3] == "tb1":
		hrp = s[3:]
	default:
		return false
	}
	for i := 0; i < len(hrp); i++ {
		found := false
		for j := 0; j < len(bech32Charset); j++ {
			if hrp[i] == bech32Charset[j] {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

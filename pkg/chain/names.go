package chain

import (
	"strconv"

	"github.com/miekg/dns"
)

// AlgorithmName returns the IANA mnemonic for a DNSSEC algorithm number
// (e.g. 8 → "RSASHA256"), or the decimal number if it is unknown.
func AlgorithmName(alg int) string {
	if alg >= 0 && alg <= 255 {
		if name, ok := dns.AlgorithmToString[uint8(alg)]; ok {
			return name
		}
	}
	return itoa(alg)
}

// DigestTypeName returns the mnemonic for a DS digest type
// (e.g. 2 → "SHA256"), or the decimal number if it is unknown.
func DigestTypeName(digestType int) string {
	if digestType >= 0 && digestType <= 255 {
		if name, ok := dns.HashToString[uint8(digestType)]; ok {
			return name
		}
	}
	return itoa(digestType)
}

func itoa(n int) string { return strconv.Itoa(n) }

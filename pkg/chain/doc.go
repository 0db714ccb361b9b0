// Package chain defines the DNSSEC chain-of-trust data model consumed by the
// graph compiler.
//
// A [Response] is the JSON document returned by the chain API for one target
// domain. Its levels are ordered root-first: index 0 is always the DNS root
// zone and the last index is the queried domain. Each [Level] carries the
// zone's signing keys, the DS records its parent publishes about it, and the
// upstream validator's verdict on whether the chain breaks at that level.
//
// # Loading
//
//	resp, err := chain.ReadFile("example.com.json")
//	resp, err := chain.Decode(r)
//
// Decoding fails only for malformed JSON. A document without a "levels"
// array decodes to an empty Response, which compiles to the empty graph.
//
// # Naming
//
// [AlgorithmName] and [DigestTypeName] map DNSSEC algorithm and DS digest
// numbers to their IANA mnemonics using the tables from
// [github.com/miekg/dns].
package chain

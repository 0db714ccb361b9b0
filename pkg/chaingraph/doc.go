// Package chaingraph compiles a DNSSEC chain of trust into a styled graph
// description.
//
// # Overview
//
// [Compile] is a pure function: it takes a [chain.Response] and returns an
// immutable [Graph] made of one [Cluster] per zone level plus the delegation
// edges linking consecutive zones. The same input always yields an equal
// Graph, and serializers built on it (see render/dot and render/flow)
// produce byte-identical output.
//
// Compilation runs in five steps:
//
//  1. Normalize each level: infer the zone type and pick at most one KSK and
//     one ZSK ([Normalize]).
//  2. Resolve the level's palette from zone type, signing status and break
//     status ([ResolvePalette]).
//  3. Build the level's nodes: apex, key-set, DNSKEY record-set (levels > 0),
//     DS record-set and the DS node the zone publishes for its child.
//  4. Compose the level's edges, including the signs/validates edges that tie
//     it to the next level.
//  5. Assemble clusters in level order followed by the delegation edges.
//
// # Key resolution
//
// Upstream schema versions mark key roles differently. For each role the
// first match in this order wins:
//
//  1. a dnskey_records entry with is_ksk / is_zsk set
//  2. the first entry of key_hierarchy.ksk_keys / zsk_keys
//  3. a dnskey_records entry whose role is "KSK" / "ZSK"
//
// # Palettes
//
// A break palette always wins over the unsigned palette, which always wins
// over the zone-type palette.
//
// # Placeholders
//
// Missing data never removes structure. A level without DNSKEY records gets a
// dashed "No DNSKEY" node and a child without DS records gets a dashed
// "No DS for <child>" node, both in error colors.
package chaingraph

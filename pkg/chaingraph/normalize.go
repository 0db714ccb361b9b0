package chaingraph

import "github.com/matzehuels/trustchain/pkg/chain"

// LevelInfo is a zone level with its ambiguous fields resolved.
type LevelInfo struct {
	Index     int
	Last      bool
	ZoneType  string
	KSK       *chain.DNSKeyRecord // nil when no key matched
	ZSK       *chain.DNSKeyRecord
	HasDNSKEY bool
	Signed    bool
	Broken    bool
}

// Normalize resolves the effective zone type and the effective KSK and ZSK
// of the level at idx in a chain of count levels.
func Normalize(l chain.Level, idx, count int) LevelInfo {
	dnskeys := l.Records.DNSKEYRecords
	var hier chain.KeyHierarchy
	if l.KeyHierarchy != nil {
		hier = *l.KeyHierarchy
	}
	return LevelInfo{
		Index:     idx,
		Last:      idx == count-1,
		ZoneType:  ZoneType(l.DomainType, idx, count),
		KSK:       resolveKey(dnskeys, hier.KSKKeys, chain.RoleKSK, func(k chain.DNSKeyRecord) bool { return k.IsKSK }),
		ZSK:       resolveKey(dnskeys, hier.ZSKKeys, chain.RoleZSK, func(k chain.DNSKeyRecord) bool { return k.IsZSK }),
		HasDNSKEY: len(dnskeys) > 0,
		Signed:    l.Signed(),
		Broken:    l.ChainBreakInfo.HasChainBreak,
	}
}

// ZoneType returns domainType when set, and otherwise infers the type from
// the level position: the first level is the root, the last the target and
// everything between a TLD.
func ZoneType(domainType string, idx, count int) string {
	switch {
	case domainType != "":
		return domainType
	case idx == 0:
		return chain.ZoneRoot
	case idx == count-1:
		return chain.ZoneTarget
	default:
		return chain.ZoneTLD
	}
}

func resolveKey(dnskeys, bucket []chain.DNSKeyRecord, role string, flagged func(chain.DNSKeyRecord) bool) *chain.DNSKeyRecord {
	for _, k := range dnskeys {
		if flagged(k) {
			return &k
		}
	}
	if len(bucket) > 0 {
		k := bucket[0]
		return &k
	}
	for _, k := range dnskeys {
		if k.Role == role {
			return &k
		}
	}
	return nil
}

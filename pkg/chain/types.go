package chain

import "strings"

// Zone types reported by the chain API in domain_type.
const (
	ZoneRoot      = "root"
	ZoneTLD       = "tld"
	ZoneSubdomain = "subdomain"
	ZoneTarget    = "target"
	ZoneUnsigned  = "unsigned"
)

// StatusSigned is the only dnssec_status.status value treated as signed.
const StatusSigned = "signed"

// Key roles used in DNSKeyRecord.Role.
const (
	RoleKSK = "KSK"
	RoleZSK = "ZSK"
)

// Response is a chain-validation result for one target domain.
type Response struct {
	Levels   []Level   `json:"levels"`
	Summary  *Summary  `json:"chain_summary,omitempty"`
	Metadata *Metadata `json:"metadata,omitempty"`
}

// IsEmpty reports whether r carries no levels. A nil Response is empty.
func (r *Response) IsEmpty() bool {
	return r == nil || len(r.Levels) == 0
}

// Target returns the display name of the last level, or "" for an empty response.
func (r *Response) Target() string {
	if r.IsEmpty() {
		return ""
	}
	return r.Levels[len(r.Levels)-1].DisplayName
}

// Level is one zone in the chain.
type Level struct {
	DisplayName    string         `json:"display_name"`
	Domain         string         `json:"domain,omitempty"`
	Index          int            `json:"index,omitempty"`
	DomainType     string         `json:"domain_type,omitempty"`
	DNSSECStatus   DNSSECStatus   `json:"dnssec_status"`
	ChainBreakInfo ChainBreakInfo `json:"chain_break_info"`
	Records        Records        `json:"records"`
	KeyHierarchy   *KeyHierarchy  `json:"key_hierarchy,omitempty"`
}

// Signed reports whether the upstream validator marked the zone as signed.
func (l *Level) Signed() bool { return l.DNSSECStatus.Status == StatusSigned }

// FirstDS returns the first DS record the parent publishes for this zone.
func (l *Level) FirstDS() (DSRecord, bool) {
	if len(l.Records.DSRecords) == 0 {
		return DSRecord{}, false
	}
	return l.Records.DSRecords[0], true
}

// DNSKEYBreak reports whether the level has a chain break attributed to its
// DNSKEY set. The reason match is case-insensitive.
func (l *Level) DNSKEYBreak() bool {
	return l.ChainBreakInfo.HasChainBreak &&
		strings.Contains(strings.ToLower(l.ChainBreakInfo.BreakReason), "dnskey")
}

// DNSSECStatus is the upstream validator's verdict for a zone.
type DNSSECStatus struct {
	Status    string `json:"status"`
	Message   string `json:"message,omitempty"`
	Type      string `json:"type,omitempty"`
	HasDS     bool   `json:"has_ds,omitempty"`
	HasDNSKEY bool   `json:"has_dnskey,omitempty"`
	HasNSEC   bool   `json:"has_nsec,omitempty"`
}

// ChainBreakInfo describes a missing or invalid trust link at a level.
type ChainBreakInfo struct {
	HasChainBreak bool   `json:"has_chain_break"`
	BreakReason   string `json:"break_reason,omitempty"`
}

// Records holds the DNS records collected for a zone.
type Records struct {
	DNSKEYRecords []DNSKeyRecord `json:"dnskey_records,omitempty"`
	DSRecords     []DSRecord     `json:"ds_records,omitempty"`
	NSRecords     []string       `json:"ns_records,omitempty"`
}

// KeyHierarchy groups a zone's keys by role.
type KeyHierarchy struct {
	KSKKeys []DNSKeyRecord `json:"ksk_keys,omitempty"`
	ZSKKeys []DNSKeyRecord `json:"zsk_keys,omitempty"`
}

// DNSKeyRecord is a signing key published by a zone. The role may be given
// by the boolean flags, by the key_hierarchy bucket it appears in, or by the
// role string; upstream schema versions differ in which they fill.
type DNSKeyRecord struct {
	KeyTag        int    `json:"key_tag"`
	Algorithm     int    `json:"algorithm"`
	AlgorithmName string `json:"algorithm_name,omitempty"`
	KeySize       int    `json:"key_size,omitempty"`
	Flags         int    `json:"flags,omitempty"`
	IsKSK         bool   `json:"is_ksk,omitempty"`
	IsZSK         bool   `json:"is_zsk,omitempty"`
	Role          string `json:"role,omitempty"`
}

// AlgorithmLabel returns the algorithm name reported upstream, or the raw
// algorithm number when no name was given.
func (k DNSKeyRecord) AlgorithmLabel() string {
	if k.AlgorithmName != "" {
		return k.AlgorithmName
	}
	return itoa(k.Algorithm)
}

// DSRecord is a Delegation Signer record published by a zone's parent.
type DSRecord struct {
	KeyTag         int    `json:"key_tag"`
	Algorithm      int    `json:"algorithm,omitempty"`
	AlgorithmName  string `json:"algorithm_name,omitempty"`
	DigestType     int    `json:"digest_type"`
	DigestTypeName string `json:"digest_type_name,omitempty"`
	Digest         string `json:"digest"`
}

// Summary is the chain-level overview reported by the chain API.
type Summary struct {
	TotalLevels    int            `json:"total_levels"`
	SignedLevels   int            `json:"signed_levels"`
	UnsignedLevels int            `json:"unsigned_levels"`
	ChainComplete  bool           `json:"chain_complete"`
	ChainBreaks    []ChainBreak   `json:"chain_breaks,omitempty"`
	SecurityStatus SecurityStatus `json:"security_status"`
}

// ChainBreak locates one break in the chain.
type ChainBreak struct {
	Level  int    `json:"level"`
	Domain string `json:"domain"`
	Reason string `json:"reason"`
}

// SecurityStatus is the overall verdict for the chain.
type SecurityStatus struct {
	OverallStatus string `json:"overall_status"`
	Message       string `json:"message"`
	Type          string `json:"type"`
}

// Metadata describes when and for what the chain was analyzed.
type Metadata struct {
	TargetDomain      string `json:"target_domain"`
	AnalysisTimestamp string `json:"analysis_timestamp,omitempty"`
	ChainLength       int    `json:"chain_length,omitempty"`
	ChainStatus       string `json:"chain_status,omitempty"`
	ChainMessage      string `json:"chain_message,omitempty"`
}

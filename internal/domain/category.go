package domain

import "strings"

// Category is the raw scam category reported by an intelligence feed.
// Feeds may use any label; Kind maps it onto the closed set the scorer knows.
type Category string

// CategoryKind enumerates the categories with a dedicated scoring weight.
type CategoryKind int

const (
	KindOther CategoryKind = iota
	KindApprovalDrainer
	KindDrainerOperator
	KindPhishing
	KindHoneypot
	KindMaliciousRouter
	KindRugPull
	KindScamOperator
	KindFakeAirdrop
	KindClusterAssociated
)

// Category labels as they appear in intelligence feeds.
const (
	CategoryApprovalDrainer   Category = "approval_drainer"
	CategoryDrainerOperator   Category = "drainer_operator"
	CategoryPhishing          Category = "phishing"
	CategoryHoneypot          Category = "honeypot"
	CategoryMaliciousRouter   Category = "malicious_router"
	CategoryRugPull           Category = "rug_pull"
	CategoryScamOperator      Category = "scam_operator"
	CategoryFakeAirdrop       Category = "fake_airdrop"
	CategoryClusterAssociated Category = "cluster_associated"
	CategoryUnknown           Category = "unknown"
)

var categoryKinds = map[Category]CategoryKind{
	CategoryApprovalDrainer:   KindApprovalDrainer,
	CategoryDrainerOperator:   KindDrainerOperator,
	CategoryPhishing:          KindPhishing,
	CategoryHoneypot:          KindHoneypot,
	CategoryMaliciousRouter:   KindMaliciousRouter,
	CategoryRugPull:           KindRugPull,
	CategoryScamOperator:      KindScamOperator,
	CategoryFakeAirdrop:       KindFakeAirdrop,
	CategoryClusterAssociated: KindClusterAssociated,
}

// Kind returns the known kind for the category, or KindOther.
// Matching is exact: feeds are expected to use the snake_case labels.
func (c Category) Kind() CategoryKind {
	if k, ok := categoryKinds[c]; ok {
		return k
	}
	return KindOther
}

// IsDrainer reports whether the category belongs to a wallet-draining actor.
func (c Category) IsDrainer() bool {
	k := c.Kind()
	return k == KindApprovalDrainer || k == KindDrainerOperator
}

// Display renders the category for reasons, e.g. "approval_drainer" -> "Approval Drainer".
func (c Category) Display() string {
	if c == "" {
		return "Unknown"
	}
	words := strings.Fields(strings.ReplaceAll(string(c), "_", " "))
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + strings.ToLower(w[1:])
	}
	return strings.Join(words, " ")
}

// Multiplier is the amplification applied to a direct scam-match penalty.
func (k CategoryKind) Multiplier() float64 {
	switch k {
	case KindApprovalDrainer, KindDrainerOperator:
		return 1.2
	case KindPhishing, KindHoneypot:
		return 1.15
	case KindMaliciousRouter, KindRugPull, KindScamOperator:
		return 1.1
	case KindFakeAirdrop:
		return 1.05
	case KindClusterAssociated, KindOther:
		return 1.0
	default:
		return 1.0
	}
}

package analysis

import (
	"math/big"
	"strings"

	"crypto-sentinel/internal/chain"
)

const zeroPrefix = "0x000"

// Rule is a named suspicion predicate over a token transfer.
type Rule struct {
	Name  string
	Match func(tx chain.TokenTransfer) bool
}

// ScamFinding is a token transfer flagged by at least one rule.
type ScamFinding struct {
	TokenName string
	From      string
	To        string
	Value     *big.Int
	Hash      string
	// Rules lists the matching rule names in rule order.
	Rules []string
}

// SenderPrefixRule flags transfers whose sender starts with prefix (case-insensitive).
func SenderPrefixRule(name, prefix string) Rule {
	prefix = strings.ToLower(prefix)
	return Rule{
		Name: name,
		Match: func(tx chain.TokenTransfer) bool {
			return strings.HasPrefix(strings.ToLower(tx.From), prefix)
		},
	}
}

// TokenNameRule flags transfers whose token name contains keyword (case-insensitive).
func TokenNameRule(name, keyword string) Rule {
	keyword = strings.ToLower(keyword)
	return Rule{
		Name: name,
		Match: func(tx chain.TokenTransfer) bool {
			return keyword != "" && strings.Contains(strings.ToLower(tx.TokenName), keyword)
		},
	}
}

// DefaultRules returns the airdrop heuristics.
func DefaultRules() []Rule {
	return []Rule{
		SenderPrefixRule("zero-prefix-sender", zeroPrefix),
		TokenNameRule("airdrop-keyword", "airdrop"),
		TokenNameRule("claim-keyword", "claim"),
	}
}

// DetectSuspiciousTokenTransfers returns the transfers matched by any rule, in input order.
// With no rules given, DefaultRules is used.
func DetectSuspiciousTokenTransfers(transfers []chain.TokenTransfer, rules ...Rule) []ScamFinding {
	if len(rules) == 0 {
		rules = DefaultRules()
	}

	findings := make([]ScamFinding, 0)
	for _, tx := range transfers {
		matched := MatchRules(tx, rules...)
		if len(matched) == 0 {
			continue
		}
		findings = append(findings, ScamFinding{
			TokenName: tx.TokenName,
			From:      strings.ToLower(tx.From),
			To:        tx.To,
			Value:     tx.Value,
			Hash:      tx.Hash,
			Rules:     matched,
		})
	}
	return findings
}

// MatchRules returns the names of the rules tx trips, in rule order.
func MatchRules(tx chain.TokenTransfer, rules ...Rule) []string {
	var matched []string
	for _, rule := range rules {
		if rule.Match(tx) {
			matched = append(matched, rule.Name)
		}
	}
	return matched
}

package config

import (
	"regexp"
	"strings"
)

// GlobalKey names the rule applied to domains without their own entry.
const GlobalKey = "__global__"

// FiltersConfig holds per-domain link filtering rules.
type FiltersConfig struct {
	Domains map[string]DomainRule `yaml:"domains"`
}

// DomainRule selects which links of a page are resolved and whether
// visits to child URLs count for their parent.
type DomainRule struct {
	Whitelist     []string `yaml:"whitelist,omitempty"`
	Blacklist     []string `yaml:"blacklist,omitempty"`
	InheritVisits bool     `yaml:"inherit_visits"`
}

var (
	schemePrefix = regexp.MustCompile(`(?i)^https?://`)
	wwwPrefix    = regexp.MustCompile(`(?i)^www\.`)
	pathSuffix   = regexp.MustCompile(`/.*$`)
	validDomain  = regexp.MustCompile(`(?i)^[a-z0-9.-]+\.[a-z]{2,}$`)
)

// NormalizeDomain strips scheme, a leading "www." and any path.
func NormalizeDomain(s string) string {
	s = strings.TrimSpace(s)
	s = schemePrefix.ReplaceAllString(s, "")
	s = wwwPrefix.ReplaceAllString(s, "")
	return pathSuffix.ReplaceAllString(s, "")
}

// RuleFor returns the rule for domain, falling back to the global rule.
// An invalid domain gets an empty rule.
func (f FiltersConfig) RuleFor(domain string) DomainRule {
	d := NormalizeDomain(domain)
	if d == "" || !validDomain.MatchString(d) {
		return DomainRule{}
	}
	if rule, ok := f.Domains[strings.ToLower(d)]; ok {
		return rule
	}
	return f.Domains[GlobalKey]
}

// compile skips patterns that are not valid regular expressions.
func compile(patterns []string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		re, err := regexp.Compile(p)
		if err != nil {
			continue
		}
		out = append(out, re)
	}
	return out
}

// FilterLinks drops links matching any blacklist pattern, then keeps those
// matching a whitelist pattern. An empty whitelist keeps everything.
func FilterLinks(links []string, rule DomainRule) []string {
	black := compile(rule.Blacklist)
	white := compile(rule.Whitelist)

	kept := make([]string, 0, len(links))
	for _, link := range links {
		if matchesAny(black, link) {
			continue
		}
		if len(white) == 0 || matchesAny(white, link) {
			kept = append(kept, link)
		}
	}
	return kept
}

func matchesAny(res []*regexp.Regexp, s string) bool {
	for _, re := range res {
		if re.MatchString(s) {
			return true
		}
	}
	return false
}

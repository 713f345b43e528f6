package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeDomain(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"https://www.example.com/path?q=1", "example.com"},
		{"  HTTP://WWW.Example.org  ", "Example.org"},
		{"blog.test.org", "blog.test.org"},
		{"", ""},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, NormalizeDomain(tc.in), "normalize %q", tc.in)
	}
}

func TestRuleFor(t *testing.T) {
	f := FiltersConfig{Domains: map[string]DomainRule{
		GlobalKey:     {Blacklist: []string{"logout"}},
		"example.com": {InheritVisits: true, Whitelist: []string{"/docs/"}},
	}}

	assert.True(t, f.RuleFor("https://www.example.com/anything").InheritVisits)
	assert.True(t, f.RuleFor("EXAMPLE.com").InheritVisits)
	assert.Equal(t, []string{"logout"}, f.RuleFor("other.net").Blacklist)
	assert.Equal(t, DomainRule{}, f.RuleFor("localhost"), "invalid domains get an empty rule")
	assert.Equal(t, DomainRule{}, f.RuleFor(""))
}

func TestRuleFor_NoGlobal(t *testing.T) {
	f := FiltersConfig{}
	assert.Equal(t, DomainRule{}, f.RuleFor("example.com"))
}

func TestFilterLinks(t *testing.T) {
	links := []string{
		"https://example.com/docs/a",
		"https://example.com/docs/logout",
		"https://example.com/blog/b",
	}

	t.Run("empty rule keeps all", func(t *testing.T) {
		assert.Equal(t, links, FilterLinks(links, DomainRule{}))
	})

	t.Run("blacklist wins over whitelist", func(t *testing.T) {
		got := FilterLinks(links, DomainRule{
			Whitelist: []string{"/docs/"},
			Blacklist: []string{"logout$"},
		})
		assert.Equal(t, []string{"https://example.com/docs/a"}, got)
	})

	t.Run("invalid patterns are skipped", func(t *testing.T) {
		got := FilterLinks(links, DomainRule{Blacklist: []string{"(unclosed", "blog"}})
		assert.Equal(t, links[:2], got)
	})

	t.Run("no links", func(t *testing.T) {
		assert.Empty(t, FilterLinks(nil, DomainRule{Whitelist: []string{"x"}}))
	})
}

func TestLoadWithDomainFilters(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), "config.yaml")
	yamlContent := `
filters:
  domains:
    news.ycombinator.com:
      whitelist: ["item\\?id="]
      inherit_visits: true
`
	require.NoError(t, os.WriteFile(cfgPath, []byte(yamlContent), 0644))

	cfg, err := Load(cfgPath)
	require.NoError(t, err)

	rule := cfg.Filters.RuleFor("news.ycombinator.com")
	assert.True(t, rule.InheritVisits)
	assert.Equal(t, []string{`item\?id=`}, rule.Whitelist)
	assert.Contains(t, cfg.Filters.Domains, GlobalKey, "defaults merge with file entries")
}

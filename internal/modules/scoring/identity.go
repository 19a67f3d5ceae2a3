package scoring

import (
	"net/url"
	"strings"

	types "github.com/yungbote/findable-backend/internal/domain"
)

var genericSuffixes = []string{" app", " api", " platform", " service", " tool", " software"}

// IdentityNames expands a project into the lower-cased name variants a transcript may use for it:
// the name itself, the registered host of its domain, and the name without a generic product
// suffix. Order is stable and duplicates are dropped.
func IdentityNames(p *types.Project) []string {
	if p == nil {
		return nil
	}
	var names []string
	seen := map[string]struct{}{}
	add := func(s string) {
		s = strings.TrimSpace(s)
		if s == "" {
			return
		}
		if _, ok := seen[s]; ok {
			return
		}
		seen[s] = struct{}{}
		names = append(names, s)
	}

	name := strings.ToLower(strings.TrimSpace(p.Name))
	add(name)
	add(DomainHost(p.Domain))
	for _, suffix := range genericSuffixes {
		if strings.HasSuffix(name, suffix) {
			add(strings.TrimSuffix(name, suffix))
		}
	}
	return names
}

// DomainHost returns the lower-cased host of a domain or URL with any leading "www." removed.
func DomainHost(domain string) string {
	d := strings.ToLower(strings.TrimSpace(domain))
	if d == "" {
		return ""
	}
	if strings.Contains(d, "://") {
		if u, err := url.Parse(d); err == nil && u.Host != "" {
			d = u.Host
		}
	}
	if i := strings.IndexAny(d, "/?#"); i >= 0 {
		d = d[:i]
	}
	if h, _, ok := strings.Cut(d, ":"); ok {
		d = h
	}
	return strings.TrimPrefix(d, "www.")
}

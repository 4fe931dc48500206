package access

// Link is one navigation entry. Links without a rule are visible to everyone,
// including unauthenticated visitors.
type Link struct {
	Label string `json:"label"`
	Path  string `json:"path"`
	Rule  *Rule  `json:"-"`
}

// FilterVisible returns the links the principal may see, preserving input
// order. The result is computed fresh from the principal snapshot on every
// call; callers must not cache it across principals, since assignments can
// change in place (promotion) without a new login.
func FilterVisible(links []Link, p *Principal) []Link {
	visible := make([]Link, 0, len(links))
	for _, link := range links {
		if link.Rule == nil || CanAccess(p, *link.Rule) {
			visible = append(visible, link)
		}
	}
	return visible
}

package xembed

import (
	"net/url"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/net/idna"
)

// ContentURL is a content URL parsed against the path grammar of one
// experience type:
//
//	{origin}/embed/{guid}/dashboards/{dashboardId}
//	{origin}/embed/{guid}/dashboards/{dashboardId}/sheets/{sheetId}/visuals/{visualId}
type ContentURL struct {
	URL         *url.URL
	GUID        string
	DashboardID string
	SheetID     string
	VisualID    string
}

// ParseContentURL matches raw against the grammar for the experience type.
// A mismatch is fatal to experience construction.
func ParseContentURL(t ExperienceType, raw string) (*ContentURL, error) {
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, &InvalidURLError{ExperienceType: t, URL: raw}
	}

	segs := splitPath(u.EscapedPath())
	want := 4 // embed/{guid}/dashboards/{id}
	if t == ExperienceVisual {
		want = 8 // .../sheets/{sheetId}/visuals/{visualId}
	}
	if len(segs) != want || segs[0] != "embed" || segs[2] != "dashboards" {
		return nil, &InvalidURLError{ExperienceType: t, URL: raw}
	}

	c := &ContentURL{URL: u, GUID: segs[1], DashboardID: segs[3]}
	if t == ExperienceVisual {
		if segs[4] != "sheets" || segs[6] != "visuals" {
			return nil, &InvalidURLError{ExperienceType: t, URL: raw}
		}
		c.SheetID = segs[5]
		c.VisualID = segs[7]
	}
	for _, s := range segs {
		if s == "" {
			return nil, &InvalidURLError{ExperienceType: t, URL: raw}
		}
	}
	return c, nil
}

func splitPath(p string) []string {
	p = strings.Trim(p, "/")
	if p == "" {
		return nil
	}
	return strings.Split(p, "/")
}

// Key builds the experience key the content URL identifies within a context.
func (c *ContentURL) Key(t ExperienceType, contextID string) Key {
	return Key{
		ExperienceType: t,
		DashboardID:    c.DashboardID,
		SheetID:        c.SheetID,
		VisualID:       c.VisualID,
		ContextID:      contextID,
	}
}

// BuildFrameURL produces the final frame source URL: the original query
// first, then the injected identity parameters and the punycode-normalized
// host origin, then the transformed content options in sorted parameter
// order, then the fragment-encoded parameter values. Identical inputs yield
// byte-identical output.
//
// Unrecognized option keys are forwarded unmodified and returned so the
// caller can report them; they never fail the build.
func BuildFrameURL(c *ContentURL, identity Identity, hostOrigin string, opts ContentOptions) (src string, unrecognized []string) {
	var b strings.Builder
	b.WriteString(c.URL.Scheme)
	b.WriteString("://")
	b.WriteString(c.URL.Host)
	b.WriteString(c.URL.EscapedPath())

	pairs := make([]string, 0, 8)
	if c.URL.RawQuery != "" {
		pairs = append(pairs, c.URL.RawQuery)
	}
	pairs = append(pairs,
		"contextId="+url.QueryEscape(identity.ContextID),
		"discriminator="+strconv.Itoa(identity.Discriminator),
		"punyCodeEmbedOrigin="+url.QueryEscape(punycodeOrigin(hostOrigin)),
	)

	query, fragment, unrecognized := transformOptions(identity.ExperienceType, opts)
	pairs = append(pairs, query...)

	b.WriteByte('?')
	b.WriteString(strings.Join(pairs, "&"))
	if len(fragment) > 0 {
		b.WriteByte('#')
		b.WriteString(strings.Join(fragment, "&"))
	}
	return b.String(), unrecognized
}

// punycodeOrigin normalizes the host origin's hostname through IDNA so the
// marker survives non-ASCII hosts. Unparseable origins pass through as-is.
func punycodeOrigin(origin string) string {
	u, err := url.Parse(origin)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return origin
	}
	host, err := idna.ToASCII(u.Hostname())
	if err != nil {
		return origin
	}
	if port := u.Port(); port != "" {
		host += ":" + port
	}
	return u.Scheme + "://" + host
}

// sortedKeys returns the map's keys in deterministic order.
func sortedKeys[V any](m map[string]V) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

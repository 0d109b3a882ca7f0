// Package cookies keeps the cookie state the relay replays to the school system.
package cookies

import (
	"sort"
	"strings"
)

// Jar maps cookie names to values. The zero value is not usable; use Decode
// or make(Jar).
type Jar map[string]string

// Decode builds a jar from raw Set-Cookie header values.
func Decode(setCookieHeaders []string) Jar {
	j := make(Jar, len(setCookieHeaders))
	j.Merge(setCookieHeaders)
	return j
}

// Merge adds the name=value part of each Set-Cookie header to the jar. Later
// headers win on name collisions. Entries without "=" or with an empty name
// are dropped; the number dropped is returned.
func (j Jar) Merge(setCookieHeaders []string) (dropped int) {
	for _, header := range setCookieHeaders {
		pair, _, _ := strings.Cut(header, ";")
		name, value, ok := strings.Cut(pair, "=")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			dropped++
			continue
		}
		j[name] = value
	}
	return dropped
}

// Encode renders the jar as a Cookie request header value. Pairs are sorted by
// name and written without escaping.
func Encode(j Jar) string {
	names := make([]string, 0, len(j))
	for name := range j {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	for i, name := range names {
		if i > 0 {
			b.WriteString("; ")
		}
		b.WriteString(name)
		b.WriteByte('=')
		b.WriteString(j[name])
	}
	return b.String()
}

func (j Jar) String() string {
	return Encode(j)
}

// Clone returns an independent copy of the jar.
func (j Jar) Clone() Jar {
	if j == nil {
		return nil
	}
	c := make(Jar, len(j))
	for k, v := range j {
		c[k] = v
	}
	return c
}

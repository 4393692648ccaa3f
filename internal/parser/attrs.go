package parser

import (
	"regexp"
	"strings"
)

// attributes is the parse-boundary form of an attribute list like
// {.gr-run #first data-mode=exit}. It never leaves this package: fence and
// heading consumers get strongly typed fields instead.
type attributes struct {
	classes []string
	id      string
	data    map[string]string
}

var (
	attrBlockRe = regexp.MustCompile(`\{([^}]+)\}`)
	classRe     = regexp.MustCompile(`\.([a-zA-Z0-9_-]+)`)
	idRe        = regexp.MustCompile(`#([a-zA-Z0-9_-]+)`)
	// data-key=value with a double-quoted, single-quoted, or bare value
	dataRe = regexp.MustCompile(`data-([a-zA-Z0-9_-]+)=(?:"([^"]*)"|'([^']*)'|([^\s}]+))`)
)

// parseAttributes extracts classes, id, and data-* pairs from an attribute
// block. Malformed input degrades to an empty attribute set; it never fails.
func parseAttributes(s string) attributes {
	attrs := attributes{data: make(map[string]string)}

	m := attrBlockRe.FindStringSubmatch(s)
	if m == nil {
		return attrs
	}
	body := m[1]

	for _, c := range classRe.FindAllStringSubmatch(body, -1) {
		attrs.classes = append(attrs.classes, c[1])
	}
	if im := idRe.FindStringSubmatch(body); im != nil {
		attrs.id = im[1]
	}
	for _, d := range dataRe.FindAllStringSubmatch(body, -1) {
		key := d[1]
		switch {
		case d[2] != "":
			attrs.data[key] = d[2]
		case d[3] != "":
			attrs.data[key] = d[3]
		default:
			attrs.data[key] = d[4]
		}
	}
	return attrs
}

func (a attributes) hasClass(name string) bool {
	for _, c := range a.classes {
		if c == name {
			return true
		}
	}
	return false
}

// String reassembles the attribute list, mainly for diagnostics
func (a attributes) String() string {
	var parts []string
	for _, c := range a.classes {
		parts = append(parts, "."+c)
	}
	if a.id != "" {
		parts = append(parts, "#"+a.id)
	}
	for k, v := range a.data {
		parts = append(parts, "data-"+k+"="+v)
	}
	return "{" + strings.Join(parts, " ") + "}"
}

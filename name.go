package negcache

import (
	"strconv"
	"strings"

	"github.com/miekg/dns"
)

// canonicalName returns name in canonical (lower-cased, fully-qualified) form,
// as defined by RFC 4034 §6.1.
func canonicalName(name string) string {
	return dns.CanonicalName(name)
}

// validateName rejects names that don't fit the wire-format limits: 255 octets
// total, 63 octets per label. dns.IsDomainName enforces both.
func validateName(name string) (labels int, err error) {
	labels, ok := dns.IsDomainName(name)
	if !ok {
		return 0, ErrMalformedName
	}
	return labels, nil
}

// labelCount returns the number of labels in name, root included as zero labels.
func labelCount(name string) int {
	return dns.CountLabel(canonicalName(name))
}

// splitLabels returns the byte offset, within name, of the start of each
// label, in order (a thin wrapper over dns.Split for callers in this package).
func splitLabels(name string) []int {
	return dns.Split(name)
}

// isStrictSubdomain reports whether b is a strict (proper) subdomain of a:
// more labels, and the top labels(a) labels of b equal a.
func isStrictSubdomain(b, a string) bool {
	b, a = canonicalName(b), canonicalName(a)
	return labelCount(b) > labelCount(a) && dns.IsSubDomain(a, b)
}

// canonicalCompare orders two names per RFC 4034 §6.1: label-by-label starting
// from the root, each label compared case-insensitively; the name that runs out
// of labels first (the shorter common-suffix name) sorts first.
func canonicalCompare(a, b string) int {
	labelsA := dns.SplitDomainName(canonicalName(a))
	labelsB := dns.SplitDomainName(canonicalName(b))

	minLen := min(len(labelsA), len(labelsB))

	for i := 1; i <= minLen; i++ {
		labelA := labelsA[len(labelsA)-i]
		labelB := labelsB[len(labelsB)-i]

		if strings.Contains(labelA, `\`) {
			labelA = decodeEscapedOctets(labelA)
		}
		if strings.Contains(labelB, `\`) {
			labelB = decodeEscapedOctets(labelB)
		}

		if labelA != labelB {
			if labelA < labelB {
				return -1
			}
			return 1
		}
	}

	switch {
	case len(labelsA) < len(labelsB):
		return -1
	case len(labelsA) > len(labelsB):
		return 1
	default:
		return 0
	}
}

// decodeEscapedOctets converts \DDD escape sequences back to their raw byte
// value so that comparison happens on the underlying wire bytes, not on the
// text presentation form.
func decodeEscapedOctets(label string) string {
	var b strings.Builder
	for i := 0; i < len(label); i++ {
		if label[i] == '\\' && i+3 < len(label) && isDigit(label[i+1]) && isDigit(label[i+2]) && isDigit(label[i+3]) {
			if v, err := strconv.Atoi(label[i+1 : i+4]); err == nil && v <= 255 {
				b.WriteByte(byte(v))
				i += 3
				continue
			}
		}
		b.WriteByte(label[i])
	}
	return b.String()
}

func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}

package routestats

import (
	"regexp"
	"strings"
)

// Normalizer maps a raw request path to the key used for bucketing stats.
type Normalizer func(path string) string

var (
	uuidSegment    = regexp.MustCompile(`^[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}$`)
	objectIDSeg    = regexp.MustCompile(`^[0-9a-fA-F]{24}$`)
	numericSegment = regexp.MustCompile(`^[0-9]+$`)
)

// maxKeySegments bounds how much of a path contributes to the key.
const maxKeySegments = 4

// NormalizePath is the default Normalizer. Identifier-shaped segments
// (UUIDs, 24-hex object IDs, bare numbers) collapse into ":id" and only
// the first four segments are kept, so path parameters cannot grow the
// key space without bound.
func NormalizePath(path string) string {
	trimmed := strings.Trim(path, "/")
	if trimmed == "" {
		return "/"
	}
	segments := strings.Split(trimmed, "/")
	if len(segments) > maxKeySegments {
		segments = segments[:maxKeySegments]
	}
	for i, seg := range segments {
		if uuidSegment.MatchString(seg) || objectIDSeg.MatchString(seg) || numericSegment.MatchString(seg) {
			segments[i] = ":id"
		}
	}
	return "/" + strings.Join(segments, "/")
}

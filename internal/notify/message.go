package notify

import (
	"strings"

	"wanwatcher/internal/types"
)

func protocolLabel(version types.IPVersion) string {
	if version == types.IPv6 {
		return "IPv6"
	}
	return "IPv4"
}

func orNone(s string) string {
	if s == "" {
		return "none"
	}
	return s
}

// changelogPreview extracts up to five bullet points from the start of the
// release notes, falling back to a pointer at the full notes.
func changelogPreview(notes string) string {
	lines := strings.Split(notes, "\n")
	if len(lines) > 8 {
		lines = lines[:8]
	}

	var bullets []string
	for _, line := range lines {
		line = strings.TrimSpace(line)
		var cleaned string
		switch {
		case strings.HasPrefix(line, "- "):
			cleaned = strings.TrimSpace(line[2:])
		case strings.HasPrefix(line, "* "):
			cleaned = strings.TrimSpace(line[2:])
		default:
			continue
		}
		if cleaned == "" || strings.HasPrefix(cleaned, "#") {
			continue
		}
		bullets = append(bullets, "- "+cleaned)
		if len(bullets) == 5 {
			break
		}
	}

	if len(bullets) == 0 {
		return "See release notes for details"
	}
	return strings.Join(bullets, "\n")
}

func formatLocation(geo *types.GeoInfo) string {
	parts := make([]string, 0, 3)
	for _, p := range []string{geo.City, geo.Region, geo.Country} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	if len(parts) == 0 {
		return "unknown"
	}
	return strings.Join(parts, ", ")
}

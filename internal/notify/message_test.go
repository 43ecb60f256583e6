package notify

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestChangelogPreview(t *testing.T) {
	notes := `## What's Changed
- Faster lookups
* Fixed IPv6 validation
- #123 internal refactor
not a bullet
- Better retry logging
- Improved docs
- Atomic state writes
- Sixth bullet past the cap
`

	preview := changelogPreview(notes)

	assert.Contains(t, preview, "- Faster lookups")
	assert.Contains(t, preview, "- Fixed IPv6 validation")
	assert.NotContains(t, preview, "not a bullet")
	assert.NotContains(t, preview, "#123")
	assert.NotContains(t, preview, "Sixth bullet")
}

func TestChangelogPreviewEmpty(t *testing.T) {
	assert.Equal(t, "See release notes for details", changelogPreview(""))
	assert.Equal(t, "See release notes for details", changelogPreview("Plain prose release notes."))
}

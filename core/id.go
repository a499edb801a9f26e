package core

import (
	"crypto/rand"
	"strings"

	"pkt.systems/sparqlab/schema"
)

// tabIDLength is 60 bits of base32, short enough to type on the CLI.
const tabIDLength = 12

// newTabID returns a random lower-case base32 tab id. It is the caller's
// job to retry on a collision with a live tab.
func newTabID() schema.TabID {
	return schema.TabID(strings.ToLower(rand.Text()[:tabIDLength]))
}

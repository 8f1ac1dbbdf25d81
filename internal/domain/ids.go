package domain

import (
	"strings"

	"github.com/google/uuid"
)

// NewID builds a prefixed identifier like dev_1f0c9a2b4d6e, the scheme the
// mobile client already knows.
func NewID(prefix string) string {
	hex := strings.ReplaceAll(uuid.NewString(), "-", "")
	return prefix + "_" + hex[:12]
}

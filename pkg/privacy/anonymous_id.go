// Package privacy generates the opaque identifiers shown in place of
// database keys and scrubs personal information from free-text fields
// before storage.
package privacy

import (
	"crypto/rand"
	"fmt"
	"strings"
)

// EntityKind scopes anonymous identifiers by entity type.
type EntityKind string

const (
	KindListing EntityKind = "LST"
	KindProfile EntityKind = "PRF"
)

// base32 alphabet without easily-confused characters (0/O, 1/I/L).
const idAlphabet = "23456789ABCDEFGHJKMNPQRSTUVWXYZ"

const idTokenLength = 8

// GenerateAnonymousID produces a short, collision-resistant, non-reversible
// token such as "LST-11010-7KQ3ZM2W". The region segment is omitted when
// region is empty. The token carries no relation to the row's primary key.
func GenerateAnonymousID(kind EntityKind, region string) (string, error) {
	buf := make([]byte, idTokenLength)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to read random bytes: %w", err)
	}

	var token strings.Builder
	for _, b := range buf {
		token.WriteByte(idAlphabet[int(b)%len(idAlphabet)])
	}

	if region == "" {
		return fmt.Sprintf("%s-%s", kind, token.String()), nil
	}
	return fmt.Sprintf("%s-%s-%s", kind, region, token.String()), nil
}

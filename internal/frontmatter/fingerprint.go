package frontmatter

import (
	"strings"

	"github.com/inful/mdfp"
)

// lastmodKey is excluded from fingerprints alongside the fingerprint itself.
const lastmodKey = "lastmod"

// Fingerprint computes the content fingerprint of a document: its frontmatter
// (minus fingerprint and lastmod) serialized as YAML, plus the body.
func Fingerprint(fields map[string]any, body []byte) (string, error) {
	forHash := make(map[string]any, len(fields))
	for k, v := range fields {
		if k == mdfp.FingerprintField || k == lastmodKey {
			continue
		}
		forHash[k] = v
	}

	fm := ""
	if len(forHash) > 0 {
		serialized, err := SerializeYAML(forHash)
		if err != nil {
			return "", err
		}
		fm = strings.TrimSuffix(string(serialized), "\n")
	}
	return mdfp.CalculateFingerprintFromParts(fm, string(body)), nil
}

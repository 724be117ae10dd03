package gcs

import (
	"fmt"
	"strings"
)

// ParseURI splits a gs://bucket/prefix URI into its bucket and prefix. The
// prefix may be empty; the bucket may not.
func ParseURI(uri string) (bucket, prefix string, err error) {
	rest, ok := strings.CutPrefix(uri, "gs://")
	if !ok {
		return "", "", fmt.Errorf("not a gs:// URI: %q", uri)
	}

	bucket, prefix, _ = strings.Cut(rest, "/")
	if bucket == "" {
		return "", "", fmt.Errorf("missing bucket in URI %q", uri)
	}
	return bucket, strings.Trim(prefix, "/"), nil
}

package storage

import (
	"crypto/sha1"
	"encoding/hex"
	"sort"
	"strings"
)

// CloudinarySignature signs upload parameters the way Cloudinary's signed upload API expects:
// non-empty params sorted by key, joined as k=v&..., with the API secret appended, hashed
// with SHA-1. file, cloud_name, resource_type and api_key are never part of the signature.
func CloudinarySignature(params map[string]string, apiSecret string) string {
	keys := make([]string, 0, len(params))
	for k, v := range params {
		switch k {
		case "file", "cloud_name", "resource_type", "api_key":
			continue
		}
		if strings.TrimSpace(v) == "" {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, k+"="+params[k])
	}
	sum := sha1.Sum([]byte(strings.Join(pairs, "&") + apiSecret))
	return hex.EncodeToString(sum[:])
}

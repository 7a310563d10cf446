package storage

import (
	"fmt"
	"path"
	"strings"
)

// MediaPathParams identify a media object within the bucket.
type MediaPathParams struct {
	TenantID string
	Folder   string
	AssetID  string
	FileName string
}

// MediaObjectPath composes tenants/{tenant}/media/{folder...}/{asset}/{file}. Folder may be
// nested with slashes; every segment is validated.
func MediaObjectPath(params MediaPathParams) (string, error) {
	tenantID, err := validateSegment("tenantID", params.TenantID)
	if err != nil {
		return "", err
	}
	assetID, err := validateSegment("assetID", params.AssetID)
	if err != nil {
		return "", err
	}
	fileName, err := validateSegment("fileName", params.FileName)
	if err != nil {
		return "", err
	}

	parts := []string{"tenants", tenantID, "media"}
	for _, segment := range strings.Split(strings.Trim(params.Folder, "/ "), "/") {
		if segment == "" {
			continue
		}
		segment, err := validateSegment("folder", segment)
		if err != nil {
			return "", err
		}
		parts = append(parts, segment)
	}
	parts = append(parts, assetID, fileName)
	return path.Join(parts...), nil
}

func validateSegment(name, value string) (string, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return "", fmt.Errorf("storage: %s is required", name)
	}
	if strings.ContainsAny(value, "/\\") {
		return "", fmt.Errorf("storage: %s contains invalid path characters", name)
	}
	if value == "." || strings.Contains(value, "..") {
		return "", fmt.Errorf("storage: %s contains invalid traversal sequence", name)
	}
	return value, nil
}

package services

import (
	"net/url"
	"strings"

	domain "github.com/quantum-portal/api/internal/domain"
)

const (
	maxNavigationDepth = 4
	maxNavigationItems = 50
	maxNavigationLabel = 120
)

// SanitizeNavigationItems cleans an item tree before storage. Items with an empty label, an
// unknown type, an unsafe link URL or a missing target are dropped together with their
// children. Nesting below four levels is cut and each level keeps at most fifty items.
// Missing or duplicate IDs are replaced using newID.
func SanitizeNavigationItems(items []NavigationItem, newID func() string) []NavigationItem {
	seen := make(map[string]struct{})
	return sanitizeNavigationLevel(items, 1, newID, seen)
}

func sanitizeNavigationLevel(items []NavigationItem, depth int, newID func() string, seen map[string]struct{}) []NavigationItem {
	if depth > maxNavigationDepth || len(items) == 0 {
		return nil
	}
	out := make([]NavigationItem, 0, min(len(items), maxNavigationItems))
	for _, item := range items {
		if len(out) == maxNavigationItems {
			break
		}
		clean, ok := sanitizeNavigationItem(item)
		if !ok {
			continue
		}
		if _, dup := seen[clean.ID]; clean.ID == "" || dup {
			clean.ID = newID()
		}
		seen[clean.ID] = struct{}{}
		clean.Items = sanitizeNavigationLevel(item.Items, depth+1, newID, seen)
		out = append(out, clean)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func sanitizeNavigationItem(item NavigationItem) (NavigationItem, bool) {
	label := strings.TrimSpace(item.Label)
	if label == "" {
		return NavigationItem{}, false
	}
	if len([]rune(label)) > maxNavigationLabel {
		label = string([]rune(label)[:maxNavigationLabel])
	}
	itemType := domain.NavigationItemType(strings.ToLower(strings.TrimSpace(string(item.Type))))
	if itemType == "" {
		itemType = domain.NavigationItemLink
	}
	clean := NavigationItem{
		ID:           strings.TrimSpace(item.ID),
		Label:        label,
		Type:         itemType,
		OpenInNewTab: item.OpenInNewTab,
	}
	switch itemType {
	case domain.NavigationItemLink:
		link := strings.TrimSpace(item.URL)
		if !safeNavigationURL(link) {
			return NavigationItem{}, false
		}
		clean.URL = link
	case domain.NavigationItemCategory, domain.NavigationItemPage, domain.NavigationItemBrand:
		clean.TargetID = strings.TrimSpace(item.TargetID)
		if clean.TargetID == "" {
			return NavigationItem{}, false
		}
	default:
		return NavigationItem{}, false
	}
	return clean, true
}

// safeNavigationURL accepts site-relative paths, absolute http(s) URLs, mailto: and tel:.
func safeNavigationURL(raw string) bool {
	if raw == "" {
		return false
	}
	if strings.HasPrefix(raw, "/") {
		return !strings.HasPrefix(raw, "//") && !strings.Contains(raw, "\\")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	switch strings.ToLower(u.Scheme) {
	case "http", "https":
		return u.Host != ""
	case "mailto", "tel":
		return u.Opaque != ""
	}
	return false
}

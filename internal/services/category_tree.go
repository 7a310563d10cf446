package services

import (
	"fmt"
	"sort"
)

const maxBreadcrumbDepth = 32

// ErrCategoryCycle indicates the parent chain of a category loops back on itself.
var ErrCategoryCycle = fmt.Errorf("%w: parent chain forms a cycle", ErrCategoryInvalidInput)

// BuildCategoryTree nests categories under their parents. Categories without a parent, or whose
// parent is not in the set, become roots. Siblings are ordered by SortOrder, Name and ID. With
// activeOnly an inactive category hides its whole subtree.
func BuildCategoryTree(categories []Category, activeOnly bool) []CategoryNode {
	byID := make(map[string]Category, len(categories))
	for _, c := range categories {
		byID[c.ID] = c
	}
	children := make(map[string][]Category, len(categories))
	var roots []Category
	for _, c := range categories {
		if _, ok := byID[c.ParentID]; c.ParentID == "" || c.ParentID == c.ID || !ok {
			roots = append(roots, c)
			continue
		}
		children[c.ParentID] = append(children[c.ParentID], c)
	}

	visited := make(map[string]bool, len(categories))
	var build func(level []Category) []CategoryNode
	build = func(level []Category) []CategoryNode {
		sortCategories(level)
		nodes := make([]CategoryNode, 0, len(level))
		for _, c := range level {
			if visited[c.ID] || (activeOnly && !c.IsActive) {
				continue
			}
			visited[c.ID] = true
			nodes = append(nodes, CategoryNode{Category: c, Children: build(children[c.ID])})
		}
		return nodes
	}
	return build(roots)
}

// BuildBreadcrumbs returns the root to leaf path ending at categoryID. A missing parent ends
// the walk; a cycle or a chain deeper than 32 levels is an error.
func BuildBreadcrumbs(byID map[string]Category, categoryID string) ([]Category, error) {
	current, ok := byID[categoryID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrCategoryNotFound, categoryID)
	}
	seen := map[string]bool{current.ID: true}
	path := []Category{current}
	for current.ParentID != "" {
		parent, ok := byID[current.ParentID]
		if !ok {
			break
		}
		if seen[parent.ID] {
			return nil, fmt.Errorf("%w at %s", ErrCategoryCycle, parent.ID)
		}
		if len(path) >= maxBreadcrumbDepth {
			return nil, fmt.Errorf("%w: breadcrumb depth exceeds %d", ErrCategoryInvalidInput, maxBreadcrumbDepth)
		}
		seen[parent.ID] = true
		path = append(path, parent)
		current = parent
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path, nil
}

func sortCategories(categories []Category) {
	sort.SliceStable(categories, func(i, j int) bool {
		a, b := categories[i], categories[j]
		if a.SortOrder != b.SortOrder {
			return a.SortOrder < b.SortOrder
		}
		if a.Name != b.Name {
			return a.Name < b.Name
		}
		return a.ID < b.ID
	})
}

func indexCategories(categories []Category) map[string]Category {
	byID := make(map[string]Category, len(categories))
	for _, c := range categories {
		byID[c.ID] = c
	}
	return byID
}

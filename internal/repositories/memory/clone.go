package memory

import domain "github.com/quantum-portal/api/internal/domain"

func cloneTenant(t domain.Tenant) domain.Tenant {
	t.Domains = append([]string(nil), t.Domains...)
	return t
}

func cloneDynamicPage(p domain.DynamicPage) domain.DynamicPage {
	if p.Segments == nil {
		return p
	}
	segments := make([]domain.Segment, len(p.Segments))
	for i, s := range p.Segments {
		s.Blocks = append([]domain.Block(nil), s.Blocks...)
		segments[i] = s
	}
	p.Segments = segments
	return p
}

func cloneMenu(m domain.NavigationMenu) domain.NavigationMenu {
	m.Items = cloneItems(m.Items)
	return m
}

func cloneItems(items []domain.NavigationItem) []domain.NavigationItem {
	if items == nil {
		return nil
	}
	out := make([]domain.NavigationItem, len(items))
	for i, item := range items {
		item.Items = cloneItems(item.Items)
		out[i] = item
	}
	return out
}

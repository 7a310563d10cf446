package services

import (
	"fmt"
	"sort"
	"strings"

	domain "github.com/quantum-portal/api/internal/domain"
)

const (
	maxSegmentsPerPage  = 50
	maxBlocksPerSegment = 50
)

// segmentBuilder normalises segment input for one page, assigning IDs and catching duplicates.
type segmentBuilder struct {
	newID func() string
	seen  map[string]struct{}
}

func newSegmentBuilder(newID func() string, existing []Segment) *segmentBuilder {
	b := &segmentBuilder{newID: newID, seen: make(map[string]struct{})}
	for _, s := range existing {
		b.seen[s.ID] = struct{}{}
		for _, block := range s.Blocks {
			b.seen[block.ID] = struct{}{}
		}
	}
	return b
}

func (b *segmentBuilder) claim(id string) (string, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		id = b.newID()
	}
	if _, dup := b.seen[id]; dup {
		return "", fmt.Errorf("duplicate id %q", id)
	}
	b.seen[id] = struct{}{}
	return id, nil
}

// build converts input into a segment. fallbackOrder is used when input.Order is nil.
func (b *segmentBuilder) build(input SegmentInput, fallbackOrder int) (Segment, error) {
	id, err := b.claim(input.ID)
	if err != nil {
		return Segment{}, err
	}
	if len(input.Blocks) > maxBlocksPerSegment {
		return Segment{}, fmt.Errorf("segment %s has more than %d blocks", id, maxBlocksPerSegment)
	}
	order := fallbackOrder
	if input.Order != nil {
		order = *input.Order
	}
	segment := Segment{
		ID:       id,
		Name:     strings.TrimSpace(input.Name),
		Type:     strings.TrimSpace(input.Type),
		Order:    order,
		IsActive: boolOr(input.IsActive, true),
		Settings: input.Settings,
		Blocks:   make([]Block, 0, len(input.Blocks)),
	}
	for i, in := range input.Blocks {
		block, err := b.buildBlock(in)
		if err != nil {
			return Segment{}, fmt.Errorf("segment %s block %d: %w", id, i, err)
		}
		segment.Blocks = append(segment.Blocks, block)
	}
	return segment, nil
}

func (b *segmentBuilder) buildBlock(input BlockInput) (Block, error) {
	blockType := domain.BlockType(strings.ToLower(strings.TrimSpace(string(input.Type))))
	if err := ValidateBlockContent(blockType, input.Content); err != nil {
		return Block{}, err
	}
	id, err := b.claim(input.ID)
	if err != nil {
		return Block{}, err
	}
	content := input.Content
	if content == nil {
		content = map[string]any{}
	}
	return Block{
		ID:       id,
		Type:     blockType,
		Order:    input.Order,
		Content:  content,
		IsActive: boolOr(input.IsActive, true),
		Visibility: domain.BlockVisibility{
			Desktop: boolOr(input.Desktop, true),
			Mobile:  boolOr(input.Mobile, true),
		},
	}, nil
}

// buildSegments normalises a whole page worth of segments; missing orders follow input order.
func buildSegments(newID func() string, inputs []SegmentInput) ([]Segment, error) {
	if len(inputs) > maxSegmentsPerPage {
		return nil, fmt.Errorf("a page holds at most %d segments", maxSegmentsPerPage)
	}
	b := newSegmentBuilder(newID, nil)
	segments := make([]Segment, 0, len(inputs))
	for i, input := range inputs {
		segment, err := b.build(input, i)
		if err != nil {
			return nil, err
		}
		segments = append(segments, segment)
	}
	sortSegments(segments)
	return segments, nil
}

// reorderSegments assigns orders 0..n-1 following ids, which must name every segment once.
func reorderSegments(segments []Segment, ids []string) ([]Segment, error) {
	if len(ids) != len(segments) {
		return nil, fmt.Errorf("expected %d segment ids, got %d", len(segments), len(ids))
	}
	index := make(map[string]int, len(segments))
	for i, s := range segments {
		index[s.ID] = i
	}
	out := make([]Segment, 0, len(segments))
	used := make(map[string]bool, len(ids))
	for order, id := range ids {
		id = strings.TrimSpace(id)
		i, ok := index[id]
		if !ok {
			return nil, fmt.Errorf("unknown segment %q", id)
		}
		if used[id] {
			return nil, fmt.Errorf("segment %q listed twice", id)
		}
		used[id] = true
		segment := segments[i]
		segment.Order = order
		out = append(out, segment)
	}
	return out, nil
}

func nextSegmentOrder(segments []Segment) int {
	next := 0
	for _, s := range segments {
		if s.Order >= next {
			next = s.Order + 1
		}
	}
	return next
}

func sortSegments(segments []Segment) {
	sort.SliceStable(segments, func(i, j int) bool {
		if segments[i].Order != segments[j].Order {
			return segments[i].Order < segments[j].Order
		}
		return segments[i].ID < segments[j].ID
	})
}

func sortBlocks(blocks []Block) {
	sort.SliceStable(blocks, func(i, j int) bool {
		if blocks[i].Order != blocks[j].Order {
			return blocks[i].Order < blocks[j].Order
		}
		return blocks[i].ID < blocks[j].ID
	})
}

package valueobjects

import "sort"

// BlockType represents the kind of a content block
type BlockType string

const (
	BlockTypeText  BlockType = "text"
	BlockTypeImage BlockType = "image"
	BlockTypeCode  BlockType = "code"
	BlockTypeQuote BlockType = "quote"
)

// BlockTypes lists the accepted block types in display order
var BlockTypes = []BlockType{BlockTypeText, BlockTypeImage, BlockTypeCode, BlockTypeQuote}

// IsValid reports whether t is a known block type
func (t BlockType) IsValid() bool {
	switch t {
	case BlockTypeText, BlockTypeImage, BlockTypeCode, BlockTypeQuote:
		return true
	default:
		return false
	}
}

// Layout controls how a block is placed on the page
type Layout string

const (
	LayoutFull      Layout = "full"
	LayoutHalfLeft  Layout = "half_left"
	LayoutHalfRight Layout = "half_right"
)

// Layouts lists the accepted layouts in display order
var Layouts = []Layout{LayoutFull, LayoutHalfLeft, LayoutHalfRight}

// IsValid reports whether l is a known layout
func (l Layout) IsValid() bool {
	switch l {
	case LayoutFull, LayoutHalfLeft, LayoutHalfRight:
		return true
	default:
		return false
	}
}

// BlockMetadata holds type-specific annotations
type BlockMetadata struct {
	Language string `json:"language,omitempty" dynamodbav:"language,omitempty"`
	Alt      string `json:"alt,omitempty" dynamodbav:"alt,omitempty"`
	Caption  string `json:"caption,omitempty" dynamodbav:"caption,omitempty"`
}

// IsEmpty reports whether no annotation is set
func (m BlockMetadata) IsEmpty() bool {
	return m.Language == "" && m.Alt == "" && m.Caption == ""
}

// ContentBlock is one ordered unit of a post body
type ContentBlock struct {
	Order    int            `json:"order"`
	Type     BlockType      `json:"type"`
	Content  string         `json:"content"`
	Layout   Layout         `json:"layout"`
	Metadata *BlockMetadata `json:"metadata,omitempty"`
}

// Normalized returns a copy with the default layout applied and empty metadata dropped
func (b ContentBlock) Normalized() ContentBlock {
	if b.Layout == "" {
		b.Layout = LayoutFull
	}
	if b.Metadata != nil {
		if b.Metadata.IsEmpty() {
			b.Metadata = nil
		} else {
			m := *b.Metadata
			b.Metadata = &m
		}
	}
	return b
}

// NormalizeBlocks copies, normalizes and sorts blocks ascending by order.
// The sort is stable so duplicate orders keep their input sequence.
func NormalizeBlocks(blocks []ContentBlock) []ContentBlock {
	out := make([]ContentBlock, len(blocks))
	for i, b := range blocks {
		out[i] = b.Normalized()
	}
	SortBlocks(out)
	return out
}

// SortBlocks sorts blocks in place ascending by their numeric order
func SortBlocks(blocks []ContentBlock) {
	sort.SliceStable(blocks, func(i, j int) bool {
		return blocks[i].Order < blocks[j].Order
	})
}

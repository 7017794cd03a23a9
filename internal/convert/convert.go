// Package convert translates the writer editor's document tree into the
// CMS's block/span body format.
package convert

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/newsroom-publishing-api/internal/models"
)

// ToBlocks converts an editor document into an ordered slice of CMS blocks.
// A nil or empty document yields an empty slice. The input is never mutated.
//
// Rules:
//   - each top-level node with content maps to exactly one block
//   - headings map to style "h<level>", blockquotes to "blockquote",
//     everything else with text children to "normal"
//   - image nodes with an asset reference map to an image block
//   - nodes without content are dropped, not rejected
//   - spans carry mark names only; mark parameters (e.g. link hrefs) are
//     not carried over
//
// Every block and span gets a fresh key, unique within one call.
func ToBlocks(doc *models.EditorDocument) []models.Block {
	blocks := []models.Block{}
	if doc == nil {
		return blocks
	}

	for _, node := range doc.Content {
		if node.Type == models.NodeImage {
			if node.Attrs == nil || node.Attrs.AssetRef == "" {
				continue
			}
			blocks = append(blocks, models.Block{
				Key:     newKey(),
				Type:    "image",
				Asset:   &models.AssetRef{Ref: node.Attrs.AssetRef},
				Caption: node.Attrs.Caption,
			})
			continue
		}

		if len(node.Content) == 0 {
			continue
		}

		spans := make([]models.Span, 0, len(node.Content))
		for _, child := range node.Content {
			spans = append(spans, models.Span{
				Key:   newKey(),
				Type:  "span",
				Text:  child.Text,
				Marks: markNames(child.Marks),
			})
		}

		blocks = append(blocks, models.Block{
			Key:      newKey(),
			Type:     "block",
			Style:    blockStyle(&node),
			Children: spans,
		})
	}

	return blocks
}

// blockStyle maps an editor node to a CMS block style
func blockStyle(node *models.EditorNode) string {
	switch node.Type {
	case models.NodeHeading:
		level := 1
		if node.Attrs != nil && node.Attrs.Level > 0 {
			level = node.Attrs.Level
		}
		return fmt.Sprintf("h%d", level)
	case models.NodeBlockquote:
		return models.StyleBlockquote
	default:
		return models.StyleNormal
	}
}

// markNames extracts mark type identifiers, dropping mark parameters
func markNames(marks []models.EditorMark) []string {
	names := make([]string, 0, len(marks))
	for _, m := range marks {
		names = append(names, m.Type)
	}
	return names
}

// newKey generates a CMS-addressable key. Keys are unique within one
// conversion but not stable across conversions.
func newKey() string {
	return strings.ReplaceAll(uuid.New().String(), "-", "")[:12]
}

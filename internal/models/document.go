package models

// EditorDocument is the rich-text body as the writer's editor serializes it:
// a root node with top-level child nodes (paragraphs, headings, quotes,
// images), each holding inline text nodes with marks.
type EditorDocument struct {
	Type    string       `json:"type"`
	Content []EditorNode `json:"content,omitempty"`
}

// EditorNode is one node of the editor tree. Top-level nodes carry Content;
// inline text nodes carry Text and Marks.
type EditorNode struct {
	Type    string       `json:"type"`
	Attrs   *NodeAttrs   `json:"attrs,omitempty"`
	Content []EditorNode `json:"content,omitempty"`
	Text    string       `json:"text,omitempty"`
	Marks   []EditorMark `json:"marks,omitempty"`
}

// NodeAttrs carries node parameters: heading level, image asset reference.
type NodeAttrs struct {
	Level    int    `json:"level,omitempty"`
	AssetRef string `json:"assetRef,omitempty"`
	Caption  string `json:"caption,omitempty"`
}

// EditorMark is an inline mark on a text node. Attrs (e.g. a link href) are
// parsed but not carried into the CMS format.
type EditorMark struct {
	Type  string            `json:"type"`
	Attrs map[string]string `json:"attrs,omitempty"`
}

// Editor node types the converter understands
const (
	NodeParagraph  = "paragraph"
	NodeHeading    = "heading"
	NodeBlockquote = "blockquote"
	NodeImage      = "image"
	NodeText       = "text"
)

// Block is one element of a published document body in the CMS's native
// shape: a text block with styled spans, or an image block.
type Block struct {
	Key      string    `json:"_key"`
	Type     string    `json:"_type"` // "block" or "image"
	Style    string    `json:"style,omitempty"`
	Children []Span    `json:"children,omitempty"`
	Asset    *AssetRef `json:"asset,omitempty"`
	Caption  string    `json:"caption,omitempty"`
}

// Span is a run of text within a block carrying zero or more inline marks
type Span struct {
	Key   string   `json:"_key"`
	Type  string   `json:"_type"` // always "span"
	Text  string   `json:"text"`
	Marks []string `json:"marks"`
}

// AssetRef points at a CMS image asset
type AssetRef struct {
	Ref string `json:"_ref"`
}

// Block styles emitted by the converter
const (
	StyleNormal     = "normal"
	StyleBlockquote = "blockquote"
)

// PublishedDocument is the payload created in the CMS for an approved draft.
// ID is assigned by the pipeline before creation so retries of the same draft
// address the same CMS document.
type PublishedDocument struct {
	ID               string   `json:"_id,omitempty"`
	Type             string   `json:"_type"`
	Title            string   `json:"title"`
	Slug             SlugRef  `json:"slug"`
	Excerpt          string   `json:"excerpt,omitempty"`
	Body             []Block  `json:"body"`
	AuthorRef        *DocRef  `json:"author,omitempty"`
	Tags             []string `json:"tags,omitempty"`
	ReadTime         *int     `json:"readTime,omitempty"`
	FeaturedImageRef *DocRef  `json:"featuredImage,omitempty"`
	PublishedAt      string   `json:"publishedAt"`
}

// SlugRef is the CMS slug wrapper type
type SlugRef struct {
	Current string `json:"current"`
}

// DocRef is a reference to another CMS document or asset
type DocRef struct {
	Ref string `json:"_ref"`
}

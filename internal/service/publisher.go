package service

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/newsroom-publishing-api/internal/cms"
	"github.com/newsroom-publishing-api/internal/convert"
	"github.com/newsroom-publishing-api/internal/models"
	"github.com/rs/zerolog"
)

// publisher builds and creates the public CMS document for an approved draft
type publisher struct {
	client cms.Client
	log    zerolog.Logger
}

// NewPublisher creates a new Publisher
func NewPublisher(client cms.Client, log zerolog.Logger) Publisher {
	return &publisher{
		client: client,
		log:    log.With().Str("service", "publisher").Logger(),
	}
}

// Publish creates the published document and returns its id. The draft's
// recorded CMS document id, when present, becomes the document's own id so
// repeated publish attempts address one document. Slug collisions surface
// from the CMS client as PublishConflictError; everything else propagates
// unchanged.
func (p *publisher) Publish(ctx context.Context, draft *models.Draft) (string, error) {
	doc := &models.PublishedDocument{
		Type:        "article",
		Title:       draft.Title,
		Slug:        models.SlugRef{Current: Slugify(draft.Title)},
		Body:        convert.ToBlocks(draft.Body),
		Tags:        draft.Tags,
		ReadTime:    draft.ReadTime,
		PublishedAt: time.Now().UTC().Format(time.RFC3339),
	}
	if draft.CMSDocumentID != nil {
		doc.ID = *draft.CMSDocumentID
	}
	if draft.Excerpt != nil {
		doc.Excerpt = *draft.Excerpt
	}
	if draft.AuthorRef != "" {
		doc.AuthorRef = &models.DocRef{Ref: draft.AuthorRef}
	}
	if draft.FeaturedImageRef != nil && *draft.FeaturedImageRef != "" {
		doc.FeaturedImageRef = &models.DocRef{Ref: *draft.FeaturedImageRef}
	}

	id, err := p.client.CreateDocument(ctx, doc)
	if err != nil {
		return "", err
	}

	p.log.Info().Str("draft_id", draft.ID).Str("cms_document_id", id).
		Str("slug", doc.Slug.Current).Msg("Published document created")
	return id, nil
}

var nonAlnumRuns = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify turns a title into a URL-safe identifier: lowercased, with runs of
// non-alphanumeric characters collapsed to single hyphens
func Slugify(title string) string {
	slug := nonAlnumRuns.ReplaceAllString(strings.ToLower(title), "-")
	return strings.Trim(slug, "-")
}

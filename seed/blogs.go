package seed

import (
	"encoding/json"
	"strconv"

	"github.com/poiesic/fixit/core"
	"github.com/poiesic/fixit/ingestion"
)

// Blog is one article from the blog scrape. Media entries are kept opaque;
// only their presence matters for retrieval.
type Blog struct {
	Id            string            `json:"id"`
	ApplianceType string            `json:"appliance_type"`
	Brand         string            `json:"brand"`
	Title         string            `json:"title"`
	Subtitle      string            `json:"subtitle"`
	URL           string            `json:"url"`
	TopicCategory string            `json:"topic_category"`
	ContentText   string            `json:"content_text"`
	Images        []json.RawMessage `json:"images"`
	Videos        []json.RawMessage `json:"videos"`
}

// blogSources converts articles into ingestion sources. The title and
// subtitle lead the body so the opening chunk carries them; every chunk
// carries them again through the metadata.
func blogSources(blogs []Blog) []ingestion.Source {
	sources := make([]ingestion.Source, 0, len(blogs))
	for _, b := range blogs {
		var elems []string
		if b.Title != "" {
			elems = append(elems, "Title: "+b.Title)
		}
		if b.Subtitle != "" {
			elems = append(elems, "Subtitle: "+b.Subtitle)
		}
		elems = append(elems, b.ContentText)
		sources = append(sources, ingestion.Source{
			Id:       b.Id,
			Text:     joinSentences(elems),
			Metadata: blogMetadata(b),
		})
	}
	return sources
}

func blogMetadata(b Blog) core.Metadata {
	meta := core.Metadata{
		"source":     "blog_article",
		"has_images": strconv.FormatBool(len(b.Images) > 0),
		"has_videos": strconv.FormatBool(len(b.Videos) > 0),
	}
	setIf(meta, "article_id", b.Id)
	setIf(meta, "appliance_type", lower(b.ApplianceType))
	setIf(meta, "brand", lower(b.Brand))
	setIf(meta, "title", b.Title)
	setIf(meta, "url", b.URL)
	setIf(meta, "topic_category", lower(b.TopicCategory))
	return meta
}

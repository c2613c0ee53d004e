package pixabay

import (
	"github.com/kailas-cloud/pixsearch/internal/domain/image"
)

// searchResponse mirrors the Pixabay image search response body.
type searchResponse struct {
	Total     int   `json:"total"`
	TotalHits int   `json:"totalHits"`
	Hits      []hit `json:"hits"`
}

// hit is a single image record in the response.
type hit struct {
	ID            int64  `json:"id"`
	Type          string `json:"type"`
	Tags          string `json:"tags"`
	PreviewURL    string `json:"previewURL"`
	WebformatURL  string `json:"webformatURL"`
	LargeImageURL string `json:"largeImageURL"`
	Views         int    `json:"views"`
	Downloads     int    `json:"downloads"`
	Likes         int    `json:"likes"`
	Comments      int    `json:"comments"`
	User          string `json:"user"`
}

// toDomain projects a hit onto image.Image.
// webformatURL is the gallery thumbnail; previewURL is only a fallback since it is tiny (150px).
func (h hit) toDomain() (image.Image, error) {
	preview := h.WebformatURL
	if preview == "" {
		preview = h.PreviewURL
	}
	return image.New(h.ID, h.Type, h.Tags, preview, h.LargeImageURL, h.User, image.Stats{
		Likes:     h.Likes,
		Views:     h.Views,
		Comments:  h.Comments,
		Downloads: h.Downloads,
	})
}

package image

import "fmt"

// Image is a read-only projection of one search hit.
type Image struct {
	id         int64
	kind       string
	tags       string
	previewURL string
	fullURL    string
	likes      int
	views      int
	comments   int
	downloads  int
	owner      string
}

// Stats holds the engagement counters of a hit.
type Stats struct {
	Likes     int
	Views     int
	Comments  int
	Downloads int
}

// New creates a validated Image.
func New(id int64, kind, tags, previewURL, fullURL, owner string, stats Stats) (Image, error) {
	if id <= 0 {
		return Image{}, fmt.Errorf("image id must be positive, got %d", id)
	}
	if previewURL == "" {
		return Image{}, fmt.Errorf("image %d: preview url is required", id)
	}
	if fullURL == "" {
		return Image{}, fmt.Errorf("image %d: full url is required", id)
	}
	return Image{
		id:         id,
		kind:       kind,
		tags:       tags,
		previewURL: previewURL,
		fullURL:    fullURL,
		likes:      stats.Likes,
		views:      stats.Views,
		comments:   stats.Comments,
		downloads:  stats.Downloads,
		owner:      owner,
	}, nil
}

func (i Image) ID() int64          { return i.id }
func (i Image) Type() string       { return i.kind }
func (i Image) Tags() string       { return i.tags }
func (i Image) PreviewURL() string { return i.previewURL }
func (i Image) FullURL() string    { return i.fullURL }
func (i Image) Owner() string      { return i.owner }
func (i Image) Likes() int         { return i.likes }
func (i Image) Views() int         { return i.views }
func (i Image) Comments() int      { return i.comments }
func (i Image) Downloads() int     { return i.downloads }

// Stats returns all engagement counters at once.
func (i Image) Stats() Stats {
	return Stats{
		Likes:     i.likes,
		Views:     i.views,
		Comments:  i.comments,
		Downloads: i.downloads,
	}
}

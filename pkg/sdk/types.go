package pixsearch

import (
	"github.com/kailas-cloud/pixsearch/internal/domain/image"
	"github.com/kailas-cloud/pixsearch/internal/usecase/gallery"
	sessionuc "github.com/kailas-cloud/pixsearch/internal/usecase/session"
)

// Image is one search hit.
type Image struct {
	ID         int64
	Type       string
	Tags       string
	PreviewURL string
	FullURL    string
	Owner      string
	Likes      int
	Views      int
	Comments   int
	Downloads  int
}

// Result is one page of a one-shot search.
type Result struct {
	Images         []Image
	TotalAvailable int
	Page           int
	PageSize       int
	HasMore        bool
}

// Notice is a user-facing message produced by a Session.
type Notice struct {
	Error   bool
	Message string
}

func imageFromDomain(img image.Image) Image {
	return Image{
		ID:         img.ID(),
		Type:       img.Type(),
		Tags:       img.Tags(),
		PreviewURL: img.PreviewURL(),
		FullURL:    img.FullURL(),
		Owner:      img.Owner(),
		Likes:      img.Likes(),
		Views:      img.Views(),
		Comments:   img.Comments(),
		Downloads:  img.Downloads(),
	}
}

func imageFromDisplay(it gallery.DisplayItem) Image {
	img := Image{
		ID:         it.ID,
		Type:       it.Type,
		Tags:       it.Title,
		PreviewURL: it.Thumbnail.URL,
		FullURL:    it.Link,
		Owner:      it.Owner,
	}
	for _, s := range it.Stats {
		switch s.Label {
		case gallery.StatLikes:
			img.Likes = s.Value
		case gallery.StatViews:
			img.Views = s.Value
		case gallery.StatComments:
			img.Comments = s.Value
		case gallery.StatDownloads:
			img.Downloads = s.Value
		}
	}
	return img
}

func noticeFromSession(n sessionuc.Notice) Notice {
	return Notice{Error: n.Level == sessionuc.LevelError, Message: n.Message}
}

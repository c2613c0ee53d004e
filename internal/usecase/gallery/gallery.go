// Package gallery maps result batches into display items and tracks the
// "load more" affordance. It knows nothing about HTML or terminals; adapters
// mount the produced View.
package gallery

import (
	"fmt"
	"strconv"

	"github.com/kailas-cloud/pixsearch/internal/domain/image"
	dompage "github.com/kailas-cloud/pixsearch/internal/domain/page"
)

// Thumbnail dimensions used for every gallery item.
const (
	ThumbnailWidth  = 360
	ThumbnailHeight = 200
)

// User-facing affordance labels.
const (
	LabelMore = "Load more"
	LabelEnd  = "We're sorry, but you've reached the end of search results."
)

// Stat labels, in display order.
const (
	StatLikes     = "Likes"
	StatViews     = "Views"
	StatComments  = "Comments"
	StatDownloads = "Downloads"
)

// Thumbnail is the preview image of an item.
type Thumbnail struct {
	URL    string `json:"url"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// Stat is one labelled counter of the stats panel.
type Stat struct {
	Label string `json:"label"`
	Value int    `json:"value"`
}

// DisplayItem is a clickable thumbnail linking to the full-resolution asset.
type DisplayItem struct {
	ID        int64     `json:"id"`
	Owner     string    `json:"owner"`
	Type      string    `json:"type,omitempty"`
	Thumbnail Thumbnail `json:"thumbnail"`
	Link      string    `json:"link"`
	Alt       string    `json:"alt"`
	Title     string    `json:"title"`
	Stats     []Stat    `json:"stats"`
}

// Anchor returns a stable fragment identifier for the item at index i of a view.
func Anchor(i int) string {
	return "item-" + strconv.Itoa(i)
}

// AffordanceKind tells which pagination control is shown.
type AffordanceKind string

const (
	// AffordanceNone hides every pagination control.
	AffordanceNone AffordanceKind = "none"
	// AffordanceMore shows the "load more" control.
	AffordanceMore AffordanceKind = "more"
	// AffordanceEnd shows the terminal "no more results" indicator.
	AffordanceEnd AffordanceKind = "end"
)

// Affordance is the pagination control below the gallery.
// NextPage is set only for AffordanceMore; adapters bind their control to it.
type Affordance struct {
	Kind     AffordanceKind `json:"kind"`
	Label    string         `json:"label,omitempty"`
	NextPage int            `json:"next_page,omitempty"`
}

// Active reports whether the "load more" control is shown.
func (a Affordance) Active() bool { return a.Kind == AffordanceMore }

// Renderer turns domain images into display items.
type Renderer struct {
	pageSize int
}

// NewRenderer creates a Renderer. pageSize drives the affordance threshold.
func NewRenderer(pageSize int) *Renderer {
	if pageSize <= 0 {
		pageSize = dompage.DefaultSize
	}
	return &Renderer{pageSize: pageSize}
}

// PageSize returns the page size the affordance is computed with.
func (r *Renderer) PageSize() int { return r.pageSize }

// Render maps items into display items, preserving order. It has no side effects.
func (r *Renderer) Render(items []image.Image) []DisplayItem {
	out := make([]DisplayItem, 0, len(items))
	for _, img := range items {
		out = append(out, renderItem(img))
	}
	return out
}

// Affordance computes the pagination control after page was displayed.
// "Load more" is active iff totalAvailable > page*pageSize.
func (r *Renderer) Affordance(page, totalAvailable int) Affordance {
	if dompage.HasMore(totalAvailable, page, r.pageSize) {
		return Affordance{Kind: AffordanceMore, Label: LabelMore, NextPage: page + 1}
	}
	return Affordance{Kind: AffordanceEnd, Label: LabelEnd}
}

func renderItem(img image.Image) DisplayItem {
	return DisplayItem{
		ID:    img.ID(),
		Owner: img.Owner(),
		Type:  img.Type(),
		Thumbnail: Thumbnail{
			URL:    img.PreviewURL(),
			Width:  ThumbnailWidth,
			Height: ThumbnailHeight,
		},
		Link:  img.FullURL(),
		Alt:   img.Tags(),
		Title: img.Tags(),
		Stats: []Stat{
			{Label: StatLikes, Value: img.Likes()},
			{Label: StatViews, Value: img.Views()},
			{Label: StatComments, Value: img.Comments()},
			{Label: StatDownloads, Value: img.Downloads()},
		},
	}
}

// View is the visible gallery: accumulated items plus the current affordance.
// The zero value is an empty gallery with no affordance.
type View struct {
	Items      []DisplayItem `json:"items"`
	Affordance Affordance    `json:"affordance"`
}

// Append adds items after the ones already visible.
func (v *View) Append(items []DisplayItem) {
	v.Items = append(v.Items, items...)
}

// Clear drops every item and the affordance, leaving nothing bound to a previous search.
func (v *View) Clear() {
	v.Items = nil
	v.Affordance = Affordance{Kind: AffordanceNone}
}

// SetAffordance replaces the current affordance.
func (v *View) SetAffordance(a Affordance) {
	v.Affordance = a
}

// SetMoreAffordance recomputes the affordance for page against totalAvailable.
func (v *View) SetMoreAffordance(r *Renderer, page, totalAvailable int) {
	v.Affordance = r.Affordance(page, totalAvailable)
}

// Len returns the number of visible items.
func (v View) Len() int { return len(v.Items) }

// Clone returns a deep copy safe to hand to another goroutine.
func (v View) Clone() View {
	out := View{Affordance: v.Affordance}
	if v.Items != nil {
		out.Items = make([]DisplayItem, len(v.Items))
		for i, it := range v.Items {
			it.Stats = append([]Stat(nil), it.Stats...)
			out.Items[i] = it
		}
	}
	return out
}

// String implements fmt.Stringer for log output.
func (v View) String() string {
	return fmt.Sprintf("gallery(items=%d, affordance=%s)", len(v.Items), v.Affordance.Kind)
}

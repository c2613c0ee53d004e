package gallery

import (
	"fmt"
	"testing"

	"github.com/kailas-cloud/pixsearch/internal/domain/image"
)

func makeImages(t *testing.T, n, offset int) []image.Image {
	t.Helper()
	out := make([]image.Image, 0, n)
	for i := 0; i < n; i++ {
		id := int64(offset + i + 1)
		img, err := image.New(id, "photo", fmt.Sprintf("tag%d, cat", id),
			fmt.Sprintf("https://cdn.example.com/web/%d.jpg", id),
			fmt.Sprintf("https://cdn.example.com/large/%d.jpg", id),
			"owner", image.Stats{Likes: 1, Views: 2, Comments: 3, Downloads: 4})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		out = append(out, img)
	}
	return out
}

func TestRender_MapsFields(t *testing.T) {
	r := NewRenderer(15)
	items := r.Render(makeImages(t, 1, 0))
	if len(items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(items))
	}
	it := items[0]
	if it.Thumbnail.URL != "https://cdn.example.com/web/1.jpg" {
		t.Errorf("thumbnail url = %q", it.Thumbnail.URL)
	}
	if it.Thumbnail.Width != ThumbnailWidth || it.Thumbnail.Height != ThumbnailHeight {
		t.Errorf("thumbnail size = %dx%d", it.Thumbnail.Width, it.Thumbnail.Height)
	}
	if it.Link != "https://cdn.example.com/large/1.jpg" {
		t.Errorf("link = %q", it.Link)
	}
	if it.Alt != "tag1, cat" || it.Title != "tag1, cat" {
		t.Errorf("alt/title = %q/%q, want tags", it.Alt, it.Title)
	}
	if it.ID != 1 || it.Owner != "owner" {
		t.Errorf("id/owner = %d/%q", it.ID, it.Owner)
	}

	wantStats := []Stat{
		{StatLikes, 1}, {StatViews, 2}, {StatComments, 3}, {StatDownloads, 4},
	}
	if len(it.Stats) != len(wantStats) {
		t.Fatalf("expected %d stats, got %d", len(wantStats), len(it.Stats))
	}
	for i, s := range wantStats {
		if it.Stats[i] != s {
			t.Errorf("stat[%d] = %+v, want %+v", i, it.Stats[i], s)
		}
	}
}

func TestRender_PreservesOrder(t *testing.T) {
	items := NewRenderer(15).Render(makeImages(t, 5, 10))
	for i, it := range items {
		if it.ID != int64(11+i) {
			t.Errorf("items[%d].ID = %d, want %d", i, it.ID, 11+i)
		}
	}
}

func TestRender_Empty(t *testing.T) {
	items := NewRenderer(15).Render(nil)
	if len(items) != 0 {
		t.Errorf("expected no items, got %d", len(items))
	}
}

func TestAffordance(t *testing.T) {
	r := NewRenderer(15)
	tests := []struct {
		name        string
		page, total int
		want        AffordanceKind
		nextPage    int
	}{
		{"cats page 1", 1, 200, AffordanceMore, 2},
		{"cats page 2", 2, 200, AffordanceMore, 3},
		{"last partial page", 2, 20, AffordanceEnd, 0},
		{"exact fit", 1, 15, AffordanceEnd, 0},
		{"no results", 1, 0, AffordanceEnd, 0},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			a := r.Affordance(tc.page, tc.total)
			if a.Kind != tc.want {
				t.Errorf("Kind = %q, want %q", a.Kind, tc.want)
			}
			if a.NextPage != tc.nextPage {
				t.Errorf("NextPage = %d, want %d", a.NextPage, tc.nextPage)
			}
			if a.Active() != (tc.want == AffordanceMore) {
				t.Errorf("Active() = %v", a.Active())
			}
		})
	}
}

func TestAffordance_Labels(t *testing.T) {
	r := NewRenderer(15)
	if got := r.Affordance(1, 100).Label; got != LabelMore {
		t.Errorf("more label = %q", got)
	}
	if got := r.Affordance(1, 10).Label; got != LabelEnd {
		t.Errorf("end label = %q", got)
	}
}

func TestNewRenderer_DefaultPageSize(t *testing.T) {
	if got := NewRenderer(0).PageSize(); got != 15 {
		t.Errorf("PageSize() = %d, want 15", got)
	}
}

func TestView_AppendThenClear(t *testing.T) {
	r := NewRenderer(15)
	var v View
	v.Append(r.Render(makeImages(t, 15, 0)))
	v.SetMoreAffordance(r, 1, 200)
	v.Append(r.Render(makeImages(t, 15, 15)))

	if v.Len() != 30 {
		t.Fatalf("expected 30 items, got %d", v.Len())
	}
	if !v.Affordance.Active() {
		t.Error("expected active affordance")
	}

	v.Clear()
	if v.Len() != 0 {
		t.Errorf("expected empty view after Clear, got %d", v.Len())
	}
	if v.Affordance.Kind != AffordanceNone || v.Affordance.NextPage != 0 {
		t.Errorf("expected no affordance after Clear, got %+v", v.Affordance)
	}

	v.Append(r.Render(makeImages(t, 2, 100)))
	if v.Len() != 2 || v.Items[0].ID != 101 {
		t.Errorf("re-render after Clear kept stale items: %+v", v.Items)
	}
}

func TestView_CloneIsDeep(t *testing.T) {
	r := NewRenderer(15)
	var v View
	v.Append(r.Render(makeImages(t, 1, 0)))

	c := v.Clone()
	c.Items[0].Stats[0].Value = 999
	c.Items[0].Alt = "changed"

	if v.Items[0].Stats[0].Value == 999 || v.Items[0].Alt == "changed" {
		t.Error("Clone shares memory with the original")
	}
}

func TestAnchor(t *testing.T) {
	if Anchor(15) != "item-15" {
		t.Errorf("Anchor(15) = %q", Anchor(15))
	}
}

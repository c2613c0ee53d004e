// Package pixsearch embeds the Pixabay image search in a Go program.
//
// # One-shot search
//
//	client, _ := pixsearch.New(os.Getenv("PIXABAY_API_KEY"))
//	res, _ := client.Search(ctx, "yellow flowers", 1)
//	for _, img := range res.Images {
//	    fmt.Println(img.FullURL, img.Likes)
//	}
//
// # Paged session
//
//	s := client.NewSession()
//	_ = s.Submit(ctx, "cats")
//	for s.HasMore() {
//	    if err := s.LoadMore(ctx); err != nil {
//	        break
//	    }
//	}
//	fmt.Println(len(s.Images()), "images")
package pixsearch

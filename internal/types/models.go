package types

// StructuredContent is the four-field listing payload derived from one
// transcript. Keywords keep their comma-separated source order.
type StructuredContent struct {
	ArtisanName string   `json:"artisan_name"`
	AboutText   string   `json:"about_text"`
	Description string   `json:"description"`
	Keywords    []string `json:"keywords"`
}

// ListingRecord is the persisted result of one audio submission. Records are
// written once and never updated in place.
type ListingRecord struct {
	ID         string            `json:"id"`
	Transcript string            `json:"transcript"`
	Content    StructuredContent `json:"content"`
	AudioPath  string            `json:"audio_path"`
}

type PostRequest struct {
	Text     string `json:"text"`
	PostType string `json:"post_type"`
}

type PostResponse struct {
	Post string `json:"post"`
}

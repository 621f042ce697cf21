package models

// MediaEntry is one gallery entry of a product. Position 0 with the
// image/small_image/thumbnail types is the main image.
type MediaEntry struct {
	ID        int           `json:"id,omitempty"`
	MediaType string        `json:"media_type"`
	Label     string        `json:"label"`
	Position  int           `json:"position"`
	Disabled  bool          `json:"disabled"`
	Types     []string      `json:"types"`
	File      string        `json:"file,omitempty"`
	Content   *MediaContent `json:"content,omitempty"`
}

type MediaContent struct {
	Base64EncodedData string `json:"base64_encoded_data"`
	Type              string `json:"type"`
	Name              string `json:"name"`
}

type MediaEntryRequest struct {
	Entry *MediaEntry `json:"entry"`
}

// MainImageTypes are the roles carried by the position-0 entry.
var MainImageTypes = []string{"image", "small_image", "thumbnail"}

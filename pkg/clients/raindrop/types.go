package raindrop

// Raindrop is a bookmark as returned by the Raindrop.io API.
type Raindrop struct {
	ID      int64    `json:"_id"`
	Title   string   `json:"title"`
	Excerpt string   `json:"excerpt"`
	Link    string   `json:"link"`
	Domain  string   `json:"domain"`
	Tags    []string `json:"tags"`
}

// Tag is one entry of the tag taxonomy. The API reports the tag name in
// the _id field.
type Tag struct {
	Name  string `json:"_id"`
	Count int    `json:"count"`
}

// UpdateTagsRequest is the body for PUT /raindrop/{id}.
type UpdateTagsRequest struct {
	Tags []string `json:"tags"`
}

type listResponse struct {
	Result bool       `json:"result"`
	Items  []Raindrop `json:"items"`
	Count  int        `json:"count"`
}

type itemResponse struct {
	Result bool     `json:"result"`
	Item   Raindrop `json:"item"`
}

type tagsResponse struct {
	Result bool  `json:"result"`
	Items  []Tag `json:"items"`
}

type updateResponse struct {
	Result bool     `json:"result"`
	Item   Raindrop `json:"item"`
}

package metadata

// Clip is the metadata extracted from an uploaded video file.
type Clip struct {
	Title    string  `json:"title"`
	Creator  string  `json:"creator"`
	Year     string  `json:"year"`
	Duration float64 `json:"duration"` // seconds, 0 when unreadable
}

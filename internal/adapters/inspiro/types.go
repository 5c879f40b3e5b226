package inspiro

// --- Flow ---
type flowDTO struct {
	Data []struct {
		Type     string  `json:"type"`
		Text     string  `json:"text"`
		Duration float64 `json:"duration"`
		Time     float64 `json:"time"`
	} `json:"data"`
	MP3 string `json:"mp3"`
}

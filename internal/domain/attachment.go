package domain

// RawAttachment is a file reference exactly as the platform handed it over.
type RawAttachment struct {
	ID          string
	URL         string
	Filename    string
	ContentType string
	Size        int
}

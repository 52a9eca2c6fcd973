package commands

// RequestUploadURLCommand asks for a presigned URL to upload one media file
type RequestUploadURLCommand struct {
	CallerID string
	FileName string
	FileType string
	FileSize *int64
}

// Validate validates the command
func (c RequestUploadURLCommand) Validate() error {
	return requireCaller(c.CallerID)
}

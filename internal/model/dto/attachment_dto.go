package dto

// ReserveAttachmentRequest 登记一个已上传到对象存储的文件
type ReserveAttachmentRequest struct {
	ObjectKey string `json:"object_key" binding:"required,max=500"`
	Filename  string `json:"filename" binding:"required,max=255"`
	MimeType  string `json:"mime_type" binding:"required,max=100"`
	Size      int64  `json:"size" binding:"required,min=1"`
}

// ReserveAttachmentResponse 登记结果
type ReserveAttachmentResponse struct {
	ID        string `json:"id"`
	ExpiresAt string `json:"expires_at"`
}

// AttachmentView 附件公开信息
type AttachmentView struct {
	ID       string `json:"id"`
	Filename string `json:"filename"`
	MimeType string `json:"mime_type"`
	Size     int64  `json:"size"`
	URL      string `json:"url"`
}

package styletransfer

// Remote job statuses reported by GET /status/{order_id}
const (
	StatusInit   = "init"
	StatusActive = "active"
	StatusFailed = "failed"
)

// UploadURLResponse from POST /upload-url
type UploadURLResponse struct {
	UploadURL string `json:"upload_url"`
	ImageURL  string `json:"image_url"`
}

// GenerateRequest for POST /generate
type GenerateRequest struct {
	ImageURL string `json:"image_url"`
	Prompt   string `json:"prompt"`
}

// GenerateResponse from POST /generate
type GenerateResponse struct {
	OrderID string `json:"order_id"`
}

// StatusResponse from GET /status/{order_id}
type StatusResponse struct {
	Status    string `json:"status"`
	OutputURL string `json:"output_url,omitempty"`
	Error     string `json:"error,omitempty"`
}

package docs

import (
	"github.com/go-swagno/swagno"
	"github.com/go-swagno/swagno/components/endpoint"
	"github.com/go-swagno/swagno/components/http/response"
	"github.com/go-swagno/swagno/components/mime"
	"github.com/go-swagno/swagno/components/parameter"
)

// AnalyzeData is the payload of a successful analysis
type AnalyzeData struct {
	UserID          string            `json:"user_id" example:"user-123"`
	Gender          string            `json:"gender" example:"Perempuan"`
	IsHijab         bool              `json:"is_hijab" example:"true"`
	FaceShape       string            `json:"face_shape" example:"Oval"`
	Confidence      string            `json:"confidence" example:"87.5%"`
	AllScores       map[string]string `json:"all_scores"`
	Recommendations []string          `json:"recommendations" example:"Pashmina Loose,Segi Empat Simple"`
	PhotoBase64     string            `json:"photo_base64" example:"/9j/4AAQSkZJRg..."`
}

// AnalyzeResponse represents the response for face-shape analysis
type AnalyzeResponse struct {
	Status string      `json:"status" example:"success"`
	Data   AnalyzeData `json:"data"`
}

// EditRequest represents a local edit
type EditRequest struct {
	ImageBase64 string `json:"image_base64" example:"data:image/jpeg;base64,/9j/4AAQ..."`
	EditType    string `json:"edit_type" example:"color"`
	Value       string `json:"value" example:"#A0522D"`
}

// EditResponse represents the result of a local edit
type EditResponse struct {
	Status      string `json:"status" example:"success"`
	ImageResult string `json:"image_result" example:"/9j/4AAQSkZJRg..."`
	Changed     bool   `json:"changed" example:"true"`
	Reason      string `json:"reason,omitempty" example:"no_face"`
}

// RemoteEditRequest represents a remote style-transfer submission
type RemoteEditRequest struct {
	ImageBase64 string `json:"image_base64" example:"/9j/4AAQ..."`
	Style       string `json:"style" example:"Curtain Bangs"`
}

// RemoteJobResponse represents a remote job
type RemoteJobResponse struct {
	JobID       string `json:"job_id" example:"550e8400-e29b-41d4-a716-446655440000"`
	Status      string `json:"status" example:"polling"`
	Style       string `json:"style,omitempty" example:"Curtain Bangs"`
	Attempts    int    `json:"attempts" example:"2"`
	ImageResult string `json:"image_result,omitempty" example:"/9j/4AAQSkZJRg..."`
	ErrorCode   string `json:"error_code,omitempty" example:"REMOTE_JOB_TIMEOUT"`
	Error       string `json:"error,omitempty"`
	CreatedAt   string `json:"created_at,omitempty" example:"2026-01-01T00:00:00Z"`
	UpdatedAt   string `json:"updated_at,omitempty" example:"2026-01-01T00:00:09Z"`
}

// ErrorBody represents the code and message of an error
type ErrorBody struct {
	Code    string `json:"code" example:"VALIDATION_FAILED"`
	Message string `json:"message" example:"Request validation failed"`
}

// ErrorResponse represents a standard error response
type ErrorResponse struct {
	Status string    `json:"status" example:"error"`
	Error  ErrorBody `json:"error"`
}

func errorResponse(code, message, status, description string) response.Response {
	return response.New(ErrorResponse{Status: "error", Error: ErrorBody{Code: code, Message: message}}, status, description)
}

// NewSwagger creates and configures the Swagger documentation
func NewSwagger() *swagno.Swagger {
	sw := swagno.New(swagno.Config{
		Title:       "StyleKit API",
		Version:     "v1.0.0",
		Description: "Face-shape analysis, hairstyle recommendations and selfie editing",
		Host:        "localhost:3000",
		Path:        "/v1",
	})

	rateLimited := errorResponse("RATE_LIMIT_EXCEEDED", "Rate limit exceeded, please try again later", "429", "Too Many Requests")
	internal := errorResponse("INTERNAL_ERROR", "An unexpected error occurred", "500", "Internal Server Error")

	endpoints := []*endpoint.EndPoint{
		// POST /v1/style/analyze
		endpoint.New(
			endpoint.POST,
			"/style/analyze",
			endpoint.WithTags("Style"),
			endpoint.WithSummary("Analyze face shape"),
			endpoint.WithDescription("Classifies the selfie as Oval, Round or Square and returns hairstyle or hijab recommendations with a preview thumbnail."),
			endpoint.WithConsume([]mime.MIME{mime.MIME("multipart/form-data")}),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithParams(
				parameter.FileParam("image", parameter.WithRequired(), parameter.WithDescription("Selfie (JPEG, PNG or WebP)")),
				parameter.StrParam("user_id", parameter.Form, parameter.WithDescription("Caller's user id, default anonymous")),
				parameter.StrParam("gender", parameter.Form, parameter.WithDescription("Laki-laki or Perempuan, default Laki-laki")),
				parameter.BoolParam("is_hijab", parameter.Form, parameter.WithDescription("Recommend hijab styles instead of haircuts")),
			),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(AnalyzeResponse{}, "200", "Analysis completed successfully"),
			}),
			endpoint.WithErrors([]response.Response{
				errorResponse("IMAGE_TOO_LARGE", "Image exceeds the maximum allowed size", "413", "Payload Too Large"),
				errorResponse("VALIDATION_FAILED", "Request validation failed", "422", "Unprocessable Entity"),
				errorResponse("INVALID_IMAGE", "Invalid image format or corrupted file", "422", "Unprocessable Entity"),
				errorResponse("FACE_NOT_DETECTED", "Wajah tidak terdeteksi. Gunakan foto selfie yang lebih jelas.", "422", "Unprocessable Entity"),
				rateLimited,
				internal,
			}),
		),

		// POST /v1/edit-style
		endpoint.New(
			endpoint.POST,
			"/edit-style",
			endpoint.WithTags("Edit"),
			endpoint.WithSummary("Edit a selfie locally"),
			endpoint.WithDescription("Recolors hair (edit_type color, value #RRGGBB) or overlays a hair, glasses or hijab asset (value is the asset name). A face that cannot be edited, or an edit_type or asset that does not exist, returns the original image with changed=false and a reason."),
			endpoint.WithConsume([]mime.MIME{mime.JSON}),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithBody(EditRequest{}),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(EditResponse{}, "200", "Edit applied or skipped with a reason"),
			}),
			endpoint.WithErrors([]response.Response{
				errorResponse("BAD_REQUEST", "Invalid request", "400", "Bad Request"),
				errorResponse("INVALID_IMAGE", "Invalid image format or corrupted file", "422", "Unprocessable Entity"),
				errorResponse("INVALID_COLOR", "Color must be a hex value like #A0522D", "422", "Unprocessable Entity"),
				rateLimited,
				internal,
			}),
		),

		// POST /v1/edit-style/remote
		endpoint.New(
			endpoint.POST,
			"/edit-style/remote",
			endpoint.WithTags("Edit"),
			endpoint.WithSummary("Queue a remote style transfer"),
			endpoint.WithDescription("Uploads the selfie to the style-transfer service in the background. Poll the returned job until it is done, failed or timeout."),
			endpoint.WithConsume([]mime.MIME{mime.JSON}),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithBody(RemoteEditRequest{}),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(RemoteJobResponse{}, "202", "Job queued"),
			}),
			endpoint.WithErrors([]response.Response{
				errorResponse("INVALID_IMAGE", "Invalid image format or corrupted file", "422", "Unprocessable Entity"),
				errorResponse("VALIDATION_FAILED", "Request validation failed", "422", "Unprocessable Entity"),
				rateLimited,
				errorResponse("REMOTE_DISABLED", "Remote style transfer is not configured", "503", "Service Unavailable"),
				errorResponse("REMOTE_QUEUE_FULL", "Too many remote edits in progress, try again later", "503", "Service Unavailable"),
			}),
		),

		// GET /v1/remote-jobs/:id
		endpoint.New(
			endpoint.GET,
			"/remote-jobs/{id}",
			endpoint.WithTags("Edit"),
			endpoint.WithSummary("Get a remote job"),
			endpoint.WithDescription("Returns the job state. image_result is set once status is done; failed and timeout jobs carry error_code."),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithParams(
				parameter.StrParam("id", parameter.Path, parameter.WithRequired(), parameter.WithDescription("Job id")),
			),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(RemoteJobResponse{}, "200", "Job state"),
			}),
			endpoint.WithErrors([]response.Response{
				errorResponse("REMOTE_JOB_NOT_FOUND", "Remote job not found", "404", "Not Found"),
				rateLimited,
				internal,
			}),
		),
	}

	sw.AddEndpoints(endpoints)

	return sw
}

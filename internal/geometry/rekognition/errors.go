package rekognition

import "errors"

var (
	// ErrInvalidCredentials indicates that AWS credentials are invalid or missing
	ErrInvalidCredentials = errors.New("invalid or missing AWS credentials")

	// ErrImageTooLarge indicates the encoded frame exceeds the Rekognition byte limit
	ErrImageTooLarge = errors.New("image too large for rekognition")

	// ErrThrottled indicates Rekognition rejected the call for rate reasons
	ErrThrottled = errors.New("rekognition throttled the request")
)

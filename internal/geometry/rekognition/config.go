package rekognition

// Config holds configuration for the Rekognition face detector
type Config struct {
	// Region is the AWS region where Rekognition is called (e.g., "us-east-1")
	Region string

	// MinConfidence drops detections below this percentage
	MinConfidence float32

	// JPEGQuality is used when encoding the frame for upload
	JPEGQuality int
}

// DefaultConfig returns a Config with default values
func DefaultConfig() Config {
	return Config{
		Region:        "us-east-1",
		MinConfidence: 90,
		JPEGQuality:   90,
	}
}

package rekognition

import (
	"context"
	"errors"
	"fmt"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/rekognition"
	"github.com/aws/smithy-go"

	"github.com/saturnino-fabrica-de-software/stylekit/internal/geometry"
)

const (
	errCodeAccessDenied      = "AccessDeniedException"
	errCodeInvalidParameter  = "InvalidParameterException"
	errCodeImageTooLarge     = "ImageTooLargeException"
	errCodeThrottling        = "ThrottlingException"
	errCodeThroughputExceded = "ProvisionedThroughputExceededException"
)

// DetectFacesAPI is the subset of the Rekognition client the detector calls
type DetectFacesAPI interface {
	DetectFaces(ctx context.Context, params *rekognition.DetectFacesInput, optFns ...func(*rekognition.Options)) (*rekognition.DetectFacesOutput, error)
}

// NewClient creates a Rekognition client with the default credential chain
func NewClient(ctx context.Context, cfg Config) (*rekognition.Client, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.Region),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return rekognition.NewFromConfig(awsCfg), nil
}

// parseError maps Rekognition API errors onto package and geometry errors
func parseError(err error) error {
	if err == nil {
		return nil
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case errCodeAccessDenied:
			return fmt.Errorf("detect faces: %w", ErrInvalidCredentials)
		case errCodeImageTooLarge:
			return fmt.Errorf("detect faces: %w", ErrImageTooLarge)
		case errCodeThrottling, errCodeThroughputExceded:
			return fmt.Errorf("detect faces: %w", ErrThrottled)
		case errCodeInvalidParameter:
			// Rekognition reports frames it cannot find a face in this way.
			if msg := apiErr.ErrorMessage(); msg != "" {
				return fmt.Errorf("%w: %s", geometry.ErrNoFace, msg)
			}
			return geometry.ErrNoFace
		}
	}

	return fmt.Errorf("detect faces: %w", err)
}

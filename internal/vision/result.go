package vision

import "gocv.io/x/gocv"

// Reason explains why an edit left the image untouched.
type Reason string

const (
	ReasonNone            Reason = ""
	ReasonEmptyImage      Reason = "empty_image"
	ReasonNoFace          Reason = "no_face"
	ReasonNoLandmarks     Reason = "no_landmarks"
	ReasonDegenerate      Reason = "degenerate_landmarks"
	ReasonNoSegmentation  Reason = "segmentation_failed"
	ReasonInvalidColor    Reason = "invalid_color"
	ReasonAssetNotFound   Reason = "asset_not_found"
	ReasonAssetNoAlpha    Reason = "asset_without_alpha"
	ReasonInvalidSize     Reason = "invalid_target_size"
	ReasonOutOfFrame      Reason = "out_of_frame"
	ReasonEmptyHairRegion Reason = "empty_hair_region"
	ReasonInternal        Reason = "internal_error"
)

// Result is the outcome of a best-effort edit. Image is always a Mat owned
// by the caller, who must Close it. When Transformed is false, Image is a
// byte-identical copy of the input and Reason says why.
type Result struct {
	Image       gocv.Mat
	Transformed bool
	Reason      Reason
}

// Changed wraps an edited image.
func Changed(img gocv.Mat) Result {
	return Result{Image: img, Transformed: true}
}

// Unchanged returns a copy of the original together with the reason.
func Unchanged(original gocv.Mat, reason Reason) Result {
	return Result{Image: original.Clone(), Reason: reason}
}

// Close releases the result image.
func (r Result) Close() error {
	return r.Image.Close()
}

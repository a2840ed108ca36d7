package vision

import (
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"strings"

	"gocv.io/x/gocv"
)

const (
	// EditJPEGQuality is used for edited images returned to the client.
	EditJPEGQuality = 90
	// PreviewJPEGQuality is used for the analysis preview thumbnail.
	PreviewJPEGQuality = 70
	// PreviewWidth is the analysis preview width in pixels.
	PreviewWidth = 400
)

var (
	ErrEmptyInput   = errors.New("empty image input")
	ErrInvalidB64   = errors.New("invalid base64 image")
	ErrUndecodable  = errors.New("image could not be decoded")
	ErrEncodeFailed = errors.New("image could not be encoded")
)

// Decode reads JPEG/PNG bytes into a 3-channel BGR Mat.
func Decode(data []byte) (gocv.Mat, error) {
	if len(data) == 0 {
		return gocv.NewMat(), ErrEmptyInput
	}
	img, err := gocv.IMDecode(data, gocv.IMReadColor)
	if err != nil {
		return gocv.NewMat(), fmt.Errorf("%w: %v", ErrUndecodable, err)
	}
	if img.Empty() {
		_ = img.Close()
		return gocv.NewMat(), ErrUndecodable
	}
	return img, nil
}

// DecodeBase64 strips an optional data URL prefix and decodes the payload.
func DecodeBase64(s string) ([]byte, error) {
	s = StripDataURL(strings.TrimSpace(s))
	if s == "" {
		return nil, ErrEmptyInput
	}
	data, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		// Some clients drop the padding.
		data, err = base64.RawStdEncoding.DecodeString(strings.TrimRight(s, "="))
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidB64, err)
		}
	}
	return data, nil
}

// StripDataURL removes a "data:image/...;base64," prefix.
func StripDataURL(s string) string {
	if !strings.HasPrefix(s, "data:") {
		return s
	}
	if i := strings.Index(s, ","); i >= 0 {
		return s[i+1:]
	}
	return s
}

// EncodeJPEG encodes img at the given quality.
func EncodeJPEG(img gocv.Mat, quality int) ([]byte, error) {
	if img.Empty() {
		return nil, ErrEncodeFailed
	}
	buf, err := gocv.IMEncodeWithParams(gocv.JPEGFileExt, img, []int{gocv.IMWriteJpegQuality, quality})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEncodeFailed, err)
	}
	defer buf.Close()

	out := make([]byte, buf.Len())
	copy(out, buf.GetBytes())
	return out, nil
}

// EncodeJPEGBase64 encodes img as JPEG and returns standard base64 text.
func EncodeJPEGBase64(img gocv.Mat, quality int) (string, error) {
	data, err := EncodeJPEG(img, quality)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(data), nil
}

// ResizeToWidth scales img to width keeping the aspect ratio. The caller
// owns the returned Mat.
func ResizeToWidth(img gocv.Mat, width int) gocv.Mat {
	out := gocv.NewMat()
	if img.Empty() || img.Cols() == 0 {
		return out
	}
	height := int(float64(img.Rows()) * (float64(width) / float64(img.Cols())))
	if height < 1 {
		height = 1
	}
	gocv.Resize(img, &out, image.Pt(width, height), 0, 0, gocv.InterpolationLinear)
	return out
}

// Preview renders the analysis thumbnail: width 400, JPEG quality 70.
func Preview(img gocv.Mat) (string, error) {
	small := ResizeToWidth(img, PreviewWidth)
	defer small.Close()
	return EncodeJPEGBase64(small, PreviewJPEGQuality)
}

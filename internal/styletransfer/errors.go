package styletransfer

import "errors"

var (
	ErrUpload          = errors.New("style transfer upload failed")
	ErrSubmit          = errors.New("style transfer submit failed")
	ErrJobFailed       = errors.New("style transfer job failed")
	ErrJobTimeout      = errors.New("style transfer job did not finish in time")
	ErrDownload        = errors.New("style transfer result download failed")
	ErrInvalidResponse = errors.New("invalid response from style transfer service")
)

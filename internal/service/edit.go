package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"gocv.io/x/gocv"

	"github.com/saturnino-fabrica-de-software/stylekit/internal/audit"
	"github.com/saturnino-fabrica-de-software/stylekit/internal/cache"
	"github.com/saturnino-fabrica-de-software/stylekit/internal/domain"
	"github.com/saturnino-fabrica-de-software/stylekit/internal/overlay"
	"github.com/saturnino-fabrica-de-software/stylekit/internal/recolor"
	"github.com/saturnino-fabrica-de-software/stylekit/internal/vision"
)

// EditTypeColor selects the hair recolorer; every other edit type names an
// overlay category.
const EditTypeColor = "color"

type HairRecolorer interface {
	Recolor(ctx context.Context, img gocv.Mat, hex string) vision.Result
}

type StickerOverlay interface {
	Overlay(ctx context.Context, img gocv.Mat, cat overlay.Category, name string) vision.Result
}

type EditRequest struct {
	ImageBase64 string
	EditType    string
	Value       string
	RequestID   string
	ClientIP    string
	UserAgent   string
}

// EditResult is the JPEG (quality 90) of the edited or untouched image.
type EditResult struct {
	Image       []byte
	Transformed bool
	Reason      vision.Reason
}

type EditService struct {
	recolorer  HairRecolorer
	compositor StickerOverlay
	audit      audit.Logger
	logger     *slog.Logger
}

func NewEditService(recolorer HairRecolorer, compositor StickerOverlay, auditLogger audit.Logger, logger *slog.Logger) *EditService {
	if auditLogger == nil {
		auditLogger = &audit.NoOpLogger{}
	}
	return &EditService{
		recolorer:  recolorer,
		compositor: compositor,
		audit:      auditLogger,
		logger:     logger.With("component", "edit_service"),
	}
}

// Edit applies one local edit. Request problems (bad image, malformed
// colour) are errors. An edit type or asset that does not resolve, or a face
// that cannot be edited, is a successful result with Transformed false.
func (s *EditService) Edit(ctx context.Context, req EditRequest) (*EditResult, error) {
	editType := strings.ToLower(strings.TrimSpace(req.EditType))
	isColor := editType == EditTypeColor
	if isColor {
		if _, err := recolor.ParseHexColor(req.Value); err != nil {
			return nil, domain.ErrInvalidColor.WithError(err)
		}
	}

	data, err := vision.DecodeBase64(req.ImageBase64)
	if err != nil {
		return nil, domain.ErrInvalidImage.WithError(err)
	}
	img, err := vision.Decode(data)
	if err != nil {
		return nil, domain.ErrInvalidImage.WithError(err)
	}
	defer img.Close()

	var res vision.Result
	if isColor {
		res = s.recolorer.Recolor(ctx, img, req.Value)
	} else if cat, err := overlay.ParseCategory(editType); err == nil {
		res = s.compositor.Overlay(ctx, img, cat, req.Value)
	} else {
		res = vision.Unchanged(img, vision.ReasonAssetNotFound)
	}
	defer res.Close()

	out, err := vision.EncodeJPEG(res.Image, vision.EditJPEGQuality)
	if err != nil {
		return nil, domain.ErrInternal.WithError(fmt.Errorf("encode edit result: %w", err))
	}

	meta := map[string]string{"edit_type": editType, "value": req.Value}
	if !res.Transformed {
		meta["reason"] = string(res.Reason)
	}
	_ = s.audit.Log(ctx, audit.Event{
		RequestID: req.RequestID,
		EventType: audit.EventImageEdited,
		ImageHash: cache.Hash(data),
		Provider:  editType,
		Success:   res.Transformed,
		Metadata:  meta,
		IPAddress: req.ClientIP,
		UserAgent: req.UserAgent,
	})

	if !res.Transformed {
		s.logger.DebugContext(ctx, "edit left image unchanged",
			slog.String("edit_type", editType),
			slog.String("reason", string(res.Reason)),
		)
	}

	return &EditResult{Image: out, Transformed: res.Transformed, Reason: res.Reason}, nil
}

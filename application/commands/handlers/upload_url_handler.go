package handlers

import (
	"context"
	"fmt"

	"myblog-backend/application/commands"
	"myblog-backend/application/commands/bus"
	"myblog-backend/application/ports"
	"myblog-backend/domain/core/validators"
	"myblog-backend/pkg/errors"

	"go.uber.org/zap"
)

// RequestUploadURLHandler validates a media upload and issues a presigned URL for it
type RequestUploadURLHandler struct {
	validator *validators.MediaValidator
	storage   ports.MediaStorage
	logger    *zap.Logger
}

// NewRequestUploadURLHandler creates a new upload URL handler
func NewRequestUploadURLHandler(validator *validators.MediaValidator, storage ports.MediaStorage, logger *zap.Logger) *RequestUploadURLHandler {
	return &RequestUploadURLHandler{validator: validator, storage: storage, logger: logger}
}

// Handle returns a *ports.UploadTarget
func (h *RequestUploadURLHandler) Handle(ctx context.Context, cmd bus.Command) (interface{}, error) {
	c, ok := cmd.(commands.RequestUploadURLCommand)
	if !ok {
		return nil, fmt.Errorf("unexpected command type %T", cmd)
	}

	media, err := h.validator.Validate(validators.MediaUpload{
		FileName: c.FileName,
		FileType: c.FileType,
		FileSize: c.FileSize,
	})
	if err != nil {
		return nil, err
	}

	target, err := h.storage.PresignUpload(ctx, media)
	if err != nil {
		h.logger.Error("Failed to presign media upload",
			zap.String("fileType", media.Type.MIME),
			zap.Error(err),
		)
		return nil, errors.NewExternalError("s3", err)
	}

	h.logger.Info("Issued media upload URL",
		zap.String("mediaID", target.MediaID),
		zap.String("userID", c.CallerID),
	)
	return target, nil
}

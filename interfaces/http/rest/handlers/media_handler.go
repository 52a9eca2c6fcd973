package handlers

import (
	"net/http"

	"myblog-backend/application/commands"
	"myblog-backend/application/commands/bus"
	"myblog-backend/application/ports"
	"myblog-backend/pkg/common"
	"myblog-backend/pkg/errors"

	"go.uber.org/zap"
)

// MediaHandler issues direct-upload URLs for post media
type MediaHandler struct {
	commandBus *bus.CommandBus
	errors     *errors.ErrorHandler
	logger     *zap.Logger
}

// NewMediaHandler creates a new media handler
func NewMediaHandler(commandBus *bus.CommandBus, errHandler *errors.ErrorHandler, logger *zap.Logger) *MediaHandler {
	return &MediaHandler{commandBus: commandBus, errors: errHandler, logger: logger}
}

// RequestUploadURL handles POST /admin/presigned-url
func (h *MediaHandler) RequestUploadURL(w http.ResponseWriter, r *http.Request) {
	var req PresignRequest
	if err := common.DecodeJSONBody(w, r, &req); err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	fileType := req.FileType
	if fileType == "" {
		fileType = req.ContentType
	}

	userID, _ := common.GetUserID(r.Context())
	result, err := h.commandBus.Send(r.Context(), commands.RequestUploadURLCommand{
		CallerID: userID,
		FileName: req.FileName,
		FileType: fileType,
		FileSize: req.FileSize,
	})
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	target, ok := result.(*ports.UploadTarget)
	if !ok {
		h.errors.Handle(w, r, unexpectedResult(result))
		return
	}
	common.RespondJSON(w, http.StatusOK, PresignResponse{
		UploadURL: target.UploadURL,
		MediaURL:  target.MediaURL,
		MediaID:   target.MediaID,
		ExpiresIn: int(target.ExpiresIn.Seconds()),
	})
}

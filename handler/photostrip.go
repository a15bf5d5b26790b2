package handler

import (
	"encoding/base64"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/bjh-developer/restrip/config"
	"github.com/bjh-developer/restrip/model"
	"github.com/bjh-developer/restrip/service"
	"github.com/bjh-developer/restrip/utils"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type PhotostripHandler struct {
	cfg     *config.Config
	service *service.PhotostripService
}

func NewPhotostripHandler(cfg *config.Config, svc *service.PhotostripService) *PhotostripHandler {
	return &PhotostripHandler{
		cfg:     cfg,
		service: svc,
	}
}

// Rectify 处理 JSON 请求，图片与掩码为 base64
func (h *PhotostripHandler) Rectify(c *gin.Context) {
	var req model.RectifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{
			Success: false,
			Message: "No image data provided",
			Error:   err.Error(),
			Code:    string(service.KindDecode),
		})
		return
	}

	imageData, err := decodeBase64(req.Input.Image)
	if err != nil {
		h.badRequest(c, "image is not valid base64", err)
		return
	}

	var maskData []byte
	if req.Input.Mask != "" {
		maskData, err = decodeBase64(req.Input.Mask)
		if err != nil {
			h.badRequest(c, "mask is not valid base64", err)
			return
		}
	}

	h.process(c, service.ProcessRequest{Image: imageData, Mask: maskData})
}

// Upload 处理 multipart 上传，字段 image 必填，mask 可选
func (h *PhotostripHandler) Upload(c *gin.Context) {
	file, err := c.FormFile("image")
	if err != nil {
		utils.Logger.Error("failed to get uploaded file", zap.Error(err))
		h.badRequest(c, "image file is required", err)
		return
	}

	imageData, err := h.readUpload(file)
	if err != nil {
		h.badRequest(c, err.Error(), nil)
		return
	}

	var maskData []byte
	if maskFile, err := c.FormFile("mask"); err == nil {
		maskData, err = h.readUpload(maskFile)
		if err != nil {
			h.badRequest(c, err.Error(), nil)
			return
		}
	}

	utils.Logger.Info("file uploaded",
		zap.String("filename", file.Filename),
		zap.Int64("size", file.Size),
		zap.Bool("mask_supplied", maskData != nil))

	h.process(c, service.ProcessRequest{Image: imageData, Mask: maskData})
}

// GetByKey 返回缓存中的照片条 PNG
func (h *PhotostripHandler) GetByKey(c *gin.Context) {
	key := c.Param("key")
	if key == "" {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{
			Success: false,
			Message: "key is required",
		})
		return
	}

	result, err := h.service.Lookup(c.Request.Context(), key)
	if err != nil {
		utils.Logger.Error("failed to get photostrip", zap.String("key", key), zap.Error(err))
		c.JSON(http.StatusInternalServerError, model.ErrorResponse{
			Success: false,
			Message: "lookup failed",
			Error:   err.Error(),
		})
		return
	}

	if result == nil {
		c.JSON(http.StatusNotFound, model.ErrorResponse{
			Success: false,
			Message: "photostrip not found",
		})
		return
	}

	c.Data(http.StatusOK, "image/png", result.Photostrip)
}

func (h *PhotostripHandler) process(c *gin.Context, req service.ProcessRequest) {
	result, err := h.service.Process(c.Request.Context(), req)
	if err != nil {
		status, message := errorStatus(err)
		if status == http.StatusInternalServerError {
			utils.Logger.Error("failed to process photostrip", zap.Error(err))
		}
		c.JSON(status, model.ErrorResponse{
			Success: false,
			Message: message,
			Error:   err.Error(),
			Code:    string(service.KindOf(err)),
		})
		return
	}

	c.JSON(http.StatusOK, model.RectifyResponse{
		Success:     true,
		Key:         result.Key,
		Photostrip:  base64.StdEncoding.EncodeToString(result.Photostrip),
		Dimensions:  &model.Dimensions{Width: result.Width, Height: result.Height},
		Frames:      result.Frames,
		Fingerprint: result.Fingerprint,
	})
}

// readUpload 校验大小与类型后读取上传文件
func (h *PhotostripHandler) readUpload(file *multipart.FileHeader) ([]byte, error) {
	if file.Size > h.cfg.Upload.MaxSize {
		return nil, fmt.Errorf("file %s exceeds the size limit (%d MB)", file.Filename, h.cfg.Upload.MaxSize/(1024*1024))
	}

	contentType := file.Header.Get("Content-Type")
	if !h.isAllowedType(contentType) {
		return nil, fmt.Errorf("unsupported file type %q, only JPEG/PNG are accepted", contentType)
	}

	f, err := file.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return io.ReadAll(f)
}

func (h *PhotostripHandler) isAllowedType(contentType string) bool {
	for _, allowed := range h.cfg.Upload.AllowedTypes {
		if strings.EqualFold(contentType, allowed) {
			return true
		}
	}
	return false
}

func (h *PhotostripHandler) badRequest(c *gin.Context, message string, err error) {
	resp := model.ErrorResponse{
		Success: false,
		Message: message,
		Code:    string(service.KindDecode),
	}
	if err != nil {
		resp.Error = err.Error()
	}
	c.JSON(http.StatusBadRequest, resp)
}

// decodeBase64 兼容 data URL 前缀
func decodeBase64(s string) ([]byte, error) {
	if i := strings.Index(s, ";base64,"); i >= 0 && strings.HasPrefix(s, "data:") {
		s = s[i+len(";base64,"):]
	}
	return base64.StdEncoding.DecodeString(strings.TrimSpace(s))
}

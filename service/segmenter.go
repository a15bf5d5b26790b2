package service

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/bjh-developer/restrip/config"
	"github.com/bjh-developer/restrip/utils"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"gocv.io/x/gocv"
)

// Segmenter 产生照片条候选掩码，掩码与输入图像同尺寸
type Segmenter interface {
	Segment(ctx context.Context, img gocv.Mat) ([]gocv.Mat, error)
}

// RemoteSegmenter 调用外部分割模型服务
type RemoteSegmenter struct {
	inferenceURL string
	client       *http.Client
}

func NewRemoteSegmenter(cfg *config.SegmenterConfig) *RemoteSegmenter {
	return &RemoteSegmenter{
		inferenceURL: cfg.InferenceURL,
		client:       &http.Client{Timeout: cfg.Timeout},
	}
}

type segmentResponse struct {
	Masks []string `json:"masks"`
	Error string   `json:"error,omitempty"`
}

// Segment 以 multipart 上传 PNG 图像，返回解码后的候选掩码
func (s *RemoteSegmenter) Segment(ctx context.Context, img gocv.Mat) ([]gocv.Mat, error) {
	data, err := EncodePNG(img)
	if err != nil {
		return nil, err
	}

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	part, err := writer.CreateFormFile("file", "image.png")
	if err != nil {
		return nil, errors.Wrap(err, "create form file")
	}
	if _, err := io.Copy(part, bytes.NewReader(data)); err != nil {
		return nil, errors.Wrap(err, "copy image data")
	}
	if err := writer.Close(); err != nil {
		return nil, errors.Wrap(err, "close multipart writer")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.inferenceURL, body)
	if err != nil {
		return nil, errors.Wrap(err, "create request")
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	start := time.Now()
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "send request")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.Errorf("segmentation failed with status: %d", resp.StatusCode)
	}

	var result segmentResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, errors.Wrap(err, "decode response")
	}
	if result.Error != "" {
		return nil, errors.Errorf("segmentation service: %s", result.Error)
	}

	masks := make([]gocv.Mat, 0, len(result.Masks))
	for i, encoded := range result.Masks {
		raw, err := base64.StdEncoding.DecodeString(encoded)
		if err != nil {
			closeAll(masks)
			return nil, newError(KindDecode, "mask %d: %v", i, err)
		}
		mask, err := DecodeMask(raw)
		if err != nil {
			closeAll(masks)
			return nil, errors.Wrapf(err, "mask %d", i)
		}
		masks = append(masks, mask)
	}

	utils.Logger.Debug("remote segmentation finished",
		zap.Int("candidates", len(masks)),
		zap.Duration("duration", time.Since(start)))

	return masks, nil
}

// CheckHealth 检查分割服务是否可用
func (s *RemoteSegmenter) CheckHealth(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, strings.TrimSuffix(s.inferenceURL, "/")+"/health", nil)
	if err != nil {
		return err
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("segmentation service unhealthy: %d", resp.StatusCode)
	}
	return nil
}

func closeAll(mats []gocv.Mat) {
	for _, m := range mats {
		m.Close()
	}
}

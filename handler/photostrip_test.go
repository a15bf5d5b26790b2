package handler

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"
	"time"

	"github.com/bjh-developer/restrip/config"
	"github.com/bjh-developer/restrip/model"
	"github.com/bjh-developer/restrip/service"
	"github.com/gin-gonic/gin"
)

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := &config.Config{
		Upload: config.UploadConfig{
			MaxSize:      1 << 20,
			AllowedTypes: []string{"image/png", "image/jpeg"},
		},
		Rectify: config.RectifyConfig{AlphaThreshold: 8, MaxConcurrent: 2, QueueTimeout: 5, FrameCount: 4},
		Cache:   config.CacheConfig{MaxBytes: 16 << 20, TTL: time.Hour},
	}
	svc := service.NewPhotostripService(&cfg.Rectify, nil, service.NewMemoryCache(&cfg.Cache))
	h := NewPhotostripHandler(cfg, svc)

	r := gin.New()
	api := r.Group("/api/v1")
	api.POST("/rectify", h.Rectify)
	api.POST("/upload", h.Upload)
	api.GET("/photostrip/:key", h.GetByKey)
	return r
}

// testScene 透明背景上 60x180 的不透明矩形及其掩码
func testScene(t *testing.T, withStrip bool) ([]byte, []byte) {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, 200, 240))
	mask := image.NewGray(image.Rect(0, 0, 200, 240))
	if withStrip {
		for y := 30; y < 210; y++ {
			for x := 70; x < 130; x++ {
				img.SetNRGBA(x, y, color.NRGBA{R: 180, G: 60, B: 60, A: 255})
				mask.SetGray(x, y, color.Gray{Y: 255})
			}
		}
	}
	return encodePNG(t, img), encodePNG(t, mask)
}

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("png.Encode: %v", err)
	}
	return buf.Bytes()
}

func postJSON(r http.Handler, path string, body interface{}) *httptest.ResponseRecorder {
	data, _ := json.Marshal(body)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRectify(t *testing.T) {
	r := newTestRouter(t)
	imgPNG, maskPNG := testScene(t, true)

	w := postJSON(r, "/api/v1/rectify", model.RectifyRequest{Input: model.RectifyInput{
		Image: base64.StdEncoding.EncodeToString(imgPNG),
		Mask:  "data:image/png;base64," + base64.StdEncoding.EncodeToString(maskPNG),
	}})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}

	var resp model.RectifyResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("json.Unmarshal: %v", err)
	}
	if !resp.Success || resp.Dimensions == nil || resp.Key == "" {
		t.Fatalf("resp = %+v", resp)
	}
	if resp.Dimensions.Width > resp.Dimensions.Height {
		t.Fatalf("dimensions = %+v, want portrait", resp.Dimensions)
	}
	if len(resp.Frames) != 4 {
		t.Fatalf("frames = %d, want 4", len(resp.Frames))
	}
	strip, err := base64.StdEncoding.DecodeString(resp.Photostrip)
	if err != nil {
		t.Fatalf("photostrip base64: %v", err)
	}
	if _, err := png.Decode(bytes.NewReader(strip)); err != nil {
		t.Fatalf("png.Decode: %v", err)
	}

	// 结果可按 key 取回
	req := httptest.NewRequest(http.MethodGet, "/api/v1/photostrip/"+resp.Key, nil)
	got := httptest.NewRecorder()
	r.ServeHTTP(got, req)
	if got.Code != http.StatusOK || got.Header().Get("Content-Type") != "image/png" {
		t.Fatalf("GET status = %d, content type = %q", got.Code, got.Header().Get("Content-Type"))
	}
	if !bytes.Equal(got.Body.Bytes(), strip) {
		t.Fatal("GET body differs from rectify response")
	}
}

func TestRectifyErrors(t *testing.T) {
	r := newTestRouter(t)
	imgPNG, maskPNG := testScene(t, true)
	_, emptyMask := testScene(t, false)

	testCases := []struct {
		desc   string
		body   interface{}
		status int
		code   string
	}{
		{
			desc:   "missing image",
			body:   map[string]interface{}{"input": map[string]string{}},
			status: http.StatusBadRequest,
			code:   string(service.KindDecode),
		},
		{
			desc: "bad base64",
			body: model.RectifyRequest{Input: model.RectifyInput{
				Image: "***",
			}},
			status: http.StatusBadRequest,
			code:   string(service.KindDecode),
		},
		{
			desc: "no strip",
			body: model.RectifyRequest{Input: model.RectifyInput{
				Image: base64.StdEncoding.EncodeToString(imgPNG),
				Mask:  base64.StdEncoding.EncodeToString(emptyMask),
			}},
			status: http.StatusUnprocessableEntity,
			code:   string(service.KindNoRegionFound),
		},
		{
			desc: "no mask without segmenter",
			body: model.RectifyRequest{Input: model.RectifyInput{
				Image: base64.StdEncoding.EncodeToString(imgPNG),
			}},
			status: http.StatusBadRequest,
			code:   string(service.KindDecode),
		},
		{
			desc: "undecodable image",
			body: model.RectifyRequest{Input: model.RectifyInput{
				Image: base64.StdEncoding.EncodeToString([]byte("not a png")),
				Mask:  base64.StdEncoding.EncodeToString(maskPNG),
			}},
			status: http.StatusBadRequest,
			code:   string(service.KindDecode),
		},
	}
	for _, tC := range testCases {
		t.Run(tC.desc, func(t *testing.T) {
			w := postJSON(r, "/api/v1/rectify", tC.body)
			if w.Code != tC.status {
				t.Fatalf("status = %d, want %d, body = %s", w.Code, tC.status, w.Body.String())
			}
			var resp model.ErrorResponse
			if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
				t.Fatalf("json.Unmarshal: %v", err)
			}
			if resp.Success || resp.Code != tC.code {
				t.Fatalf("resp = %+v, want code %s", resp, tC.code)
			}
		})
	}
}

func multipartBody(t *testing.T, files map[string][]byte, contentType string) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	for field, data := range files {
		header := make(textproto.MIMEHeader)
		header.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename="%s.png"`, field, field))
		header.Set("Content-Type", contentType)
		part, err := writer.CreatePart(header)
		if err != nil {
			t.Fatalf("CreatePart: %v", err)
		}
		if _, err := part.Write(data); err != nil {
			t.Fatalf("Write: %v", err)
		}
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	return body, writer.FormDataContentType()
}

func TestUpload(t *testing.T) {
	r := newTestRouter(t)
	imgPNG, maskPNG := testScene(t, true)

	testCases := []struct {
		desc        string
		files       map[string][]byte
		contentType string
		status      int
	}{
		{
			desc:        "image and mask",
			files:       map[string][]byte{"image": imgPNG, "mask": maskPNG},
			contentType: "image/png",
			status:      http.StatusOK,
		},
		{
			desc:        "wrong type",
			files:       map[string][]byte{"image": imgPNG, "mask": maskPNG},
			contentType: "image/gif",
			status:      http.StatusBadRequest,
		},
		{
			desc:        "too large",
			files:       map[string][]byte{"image": make([]byte, 2<<20)},
			contentType: "image/png",
			status:      http.StatusBadRequest,
		},
		{
			desc:        "missing image",
			files:       map[string][]byte{"mask": maskPNG},
			contentType: "image/png",
			status:      http.StatusBadRequest,
		},
	}
	for _, tC := range testCases {
		t.Run(tC.desc, func(t *testing.T) {
			body, ct := multipartBody(t, tC.files, tC.contentType)
			req := httptest.NewRequest(http.MethodPost, "/api/v1/upload", body)
			req.Header.Set("Content-Type", ct)
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			if w.Code != tC.status {
				t.Fatalf("status = %d, want %d, body = %s", w.Code, tC.status, w.Body.String())
			}
		})
	}
}

func TestGetByKeyMissing(t *testing.T) {
	r := newTestRouter(t)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/photostrip/unknown", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", w.Code)
	}
}

func TestErrorStatus(t *testing.T) {
	testCases := []struct {
		desc   string
		err    error
		status int
	}{
		{desc: "queue full", err: service.ErrQueueFull, status: http.StatusServiceUnavailable},
		{desc: "decode", err: service.ErrDecode, status: http.StatusBadRequest},
		{desc: "no region", err: service.ErrNoRegionFound, status: http.StatusUnprocessableEntity},
		{desc: "degenerate geometry", err: service.ErrDegenerateGeometry, status: http.StatusUnprocessableEntity},
		{desc: "degenerate target", err: service.ErrDegenerateTarget, status: http.StatusUnprocessableEntity},
		{desc: "other", err: fmt.Errorf("boom"), status: http.StatusInternalServerError},
	}
	for _, tC := range testCases {
		t.Run(tC.desc, func(t *testing.T) {
			if status, _ := errorStatus(tC.err); status != tC.status {
				t.Fatalf("errorStatus(%v) = %d, want %d", tC.err, status, tC.status)
			}
		})
	}
	if _, msg := errorStatus(service.ErrNoRegionFound); msg != "no photostrip detected" {
		t.Fatalf("message = %q", msg)
	}
}

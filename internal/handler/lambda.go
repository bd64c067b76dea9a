package handler

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"mime"
	"net/http"
	"strings"

	"github.com/aws/aws-lambda-go/events"
)

// LambdaFunc Lambda関数URLから呼ばれるハンドラー
type LambdaFunc func(ctx context.Context, req events.LambdaFunctionURLRequest) (events.LambdaFunctionURLResponse, error)

// NewLambdaHandler http.Handler をLambda関数URLのイベントで動かす
func NewLambdaHandler(h http.Handler) LambdaFunc {
	return func(ctx context.Context, req events.LambdaFunctionURLRequest) (events.LambdaFunctionURLResponse, error) {
		httpReq, err := toHTTPRequest(ctx, req)
		if err != nil {
			return events.LambdaFunctionURLResponse{
				StatusCode: http.StatusBadRequest,
				Body:       http.StatusText(http.StatusBadRequest),
			}, nil
		}

		w := newResponseBuffer()
		h.ServeHTTP(w, httpReq)
		return w.toLambdaResponse(), nil
	}
}

func toHTTPRequest(ctx context.Context, req events.LambdaFunctionURLRequest) (*http.Request, error) {
	body := []byte(req.Body)
	if req.IsBase64Encoded {
		decoded, err := base64.StdEncoding.DecodeString(req.Body)
		if err != nil {
			return nil, fmt.Errorf("リクエストボディのデコードに失敗しました: %w", err)
		}
		body = decoded
	}

	path := req.RawPath
	if path == "" {
		path = "/"
	}
	target := path
	if req.RawQueryString != "" {
		target += "?" + req.RawQueryString
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.RequestContext.HTTP.Method, target, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("リクエストの組み立てに失敗しました: %w", err)
	}

	for key, value := range req.Headers {
		httpReq.Header.Set(key, value)
	}
	if len(req.Cookies) > 0 {
		httpReq.Header.Set("Cookie", strings.Join(req.Cookies, "; "))
	}

	httpReq.Host = req.RequestContext.DomainName
	if host := httpReq.Header.Get("Host"); host != "" {
		httpReq.Host = host
	}
	httpReq.RemoteAddr = req.RequestContext.HTTP.SourceIP
	httpReq.ContentLength = int64(len(body))
	if proto := httpReq.Header.Get("X-Forwarded-Proto"); proto == "https" {
		httpReq.URL.Scheme = "https"
	}
	return httpReq, nil
}

// responseBuffer レスポンスをメモリに溜める http.ResponseWriter
type responseBuffer struct {
	header http.Header
	status int
	body   bytes.Buffer
}

func newResponseBuffer() *responseBuffer {
	return &responseBuffer{header: http.Header{}}
}

func (w *responseBuffer) Header() http.Header { return w.header }

func (w *responseBuffer) Write(p []byte) (int, error) {
	if w.status == 0 {
		w.status = http.StatusOK
	}
	return w.body.Write(p)
}

func (w *responseBuffer) WriteHeader(status int) {
	if w.status == 0 {
		w.status = status
	}
}

func (w *responseBuffer) toLambdaResponse() events.LambdaFunctionURLResponse {
	status := w.status
	if status == 0 {
		status = http.StatusOK
	}

	resp := events.LambdaFunctionURLResponse{
		StatusCode: status,
		Headers:    map[string]string{},
		Cookies:    w.header.Values("Set-Cookie"),
	}
	for key, values := range w.header {
		if http.CanonicalHeaderKey(key) == "Set-Cookie" {
			continue
		}
		resp.Headers[key] = strings.Join(values, ",")
	}

	if isTextContent(w.header.Get("Content-Type")) {
		resp.Body = w.body.String()
	} else {
		resp.Body = base64.StdEncoding.EncodeToString(w.body.Bytes())
		resp.IsBase64Encoded = true
	}
	return resp
}

func isTextContent(contentType string) bool {
	if contentType == "" {
		return true
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	switch {
	case strings.HasPrefix(mediaType, "text/"),
		mediaType == "application/json",
		mediaType == "application/xml",
		mediaType == "application/javascript":
		return true
	}
	return false
}

package alltalk

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/valyala/fasthttp"
)

const defaultTimeout = 2 * time.Minute

type generateResponse struct {
	Status        string `json:"status"`
	OutputFileURL string `json:"output_file_url"`
}

// Client talks to an AllTalk (XTTS) server: one form POST to generate the
// file, then a GET to download it.
type Client struct {
	baseURL  string
	language string
	timeout  time.Duration
	http     *fasthttp.Client
}

func NewClient(baseURL, language string) *Client {
	if language == "" {
		language = "pt"
	}
	return &Client{
		baseURL:  baseURL,
		language: language,
		timeout:  defaultTimeout,
		http: &fasthttp.Client{
			Name:                "ravena-tts",
			MaxResponseBodySize: 50 * 1024 * 1024,
		},
	}
}

func (c *Client) Generate(ctx context.Context, text, voiceFile string) ([]byte, error) {
	form := fasthttp.AcquireArgs()
	defer fasthttp.ReleaseArgs(form)
	form.Set("text_input", text)
	form.Set("text_filtering", "standard")
	form.Set("character_voice_gen", voiceFile)
	form.Set("narrator_enabled", "false")
	form.Set("language", c.language)
	form.Set("output_file_name", "tts_audio_"+uuid.NewString()[:4])
	form.Set("output_file_timestamp", "false")

	body, err := c.do(ctx, fasthttp.MethodPost, c.baseURL+"/api/tts-generate", form.QueryString())
	if err != nil {
		return nil, err
	}

	var res generateResponse
	if err := json.Unmarshal(body, &res); err != nil {
		return nil, fmt.Errorf("invalid tts response: %w", err)
	}
	if res.Status != "generate-success" {
		return nil, fmt.Errorf("tts generation failed: %s", res.Status)
	}

	fileURL := c.baseURL + res.OutputFileURL
	logrus.Debugf("[SPEECH] Downloading tts audio from %s", fileURL)
	audio, err := c.do(ctx, fasthttp.MethodGet, fileURL, nil)
	if err != nil {
		return nil, err
	}
	if len(audio) == 0 {
		return nil, fmt.Errorf("tts server returned an empty file")
	}
	return audio, nil
}

func (c *Client) do(ctx context.Context, method, url string, form []byte) ([]byte, error) {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(url)
	req.Header.SetMethod(method)
	if form != nil {
		req.Header.SetContentType("application/x-www-form-urlencoded")
		req.SetBody(form)
	}

	deadline := time.Now().Add(c.timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	if err := c.http.DoDeadline(req, resp, deadline); err != nil {
		return nil, fmt.Errorf("tts request %s failed: %w", url, err)
	}
	if resp.StatusCode() != fasthttp.StatusOK {
		return nil, fmt.Errorf("tts request %s returned status %d", url, resp.StatusCode())
	}

	// resp is released on return, so the body has to be copied.
	return append([]byte(nil), resp.Body()...), nil
}

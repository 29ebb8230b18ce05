package nsfw

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"strings"
	"time"

	"github.com/AzielCF/az-ravena/domains/speech"
	"github.com/disintegration/imaging"
	"github.com/sirupsen/logrus"
	"github.com/valyala/fasthttp"
	"golang.org/x/image/webp"
)

// explicitClasses are the classifier labels that count towards a block.
var explicitClasses = []string{"porn", "hentai", "sexy"}

type classifyResponse struct {
	IsNSFW *bool              `json:"isNSFW"`
	Scores map[string]float64 `json:"scores"`
}

// Client posts images to an NSFW classification service.
type Client struct {
	url       string
	threshold float64
	timeout   time.Duration
	http      *fasthttp.Client
}

func NewClient(url string, threshold float64) *Client {
	if threshold <= 0 {
		threshold = 0.7
	}
	return &Client{
		url:       url,
		threshold: threshold,
		timeout:   30 * time.Second,
		http:      &fasthttp.Client{Name: "ravena-nsfw"},
	}
}

func (c *Client) Classify(ctx context.Context, image []byte, mimeType string) (speech.NSFWResult, error) {
	if strings.HasPrefix(mimeType, "image/webp") {
		converted, err := webpToJPEG(image)
		if err != nil {
			return speech.NSFWResult{}, err
		}
		image, mimeType = converted, "image/jpeg"
	}

	var body bytes.Buffer
	form := multipart.NewWriter(&body)
	part, err := form.CreateFormFile("image", "image"+extensionFor(mimeType))
	if err != nil {
		return speech.NSFWResult{}, err
	}
	if _, err := part.Write(image); err != nil {
		return speech.NSFWResult{}, err
	}
	if err := form.Close(); err != nil {
		return speech.NSFWResult{}, err
	}

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(c.url)
	req.Header.SetMethod(fasthttp.MethodPost)
	req.Header.SetContentType(form.FormDataContentType())
	req.SetBody(body.Bytes())

	deadline := time.Now().Add(c.timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	if err := c.http.DoDeadline(req, resp, deadline); err != nil {
		return speech.NSFWResult{}, fmt.Errorf("nsfw request failed: %w", err)
	}
	if resp.StatusCode() != fasthttp.StatusOK {
		return speech.NSFWResult{}, fmt.Errorf("nsfw classifier returned status %d", resp.StatusCode())
	}

	var res classifyResponse
	if err := json.Unmarshal(resp.Body(), &res); err != nil {
		return speech.NSFWResult{}, fmt.Errorf("invalid nsfw response: %w", err)
	}

	result := speech.NSFWResult{Scores: res.Scores}
	if res.IsNSFW != nil {
		result.IsNSFW = *res.IsNSFW
	} else {
		result.IsNSFW = c.exceeds(res.Scores)
	}
	logrus.WithField("scores", res.Scores).Debugf("[NSFW] Classified image, nsfw=%v", result.IsNSFW)
	return result, nil
}

func (c *Client) exceeds(scores map[string]float64) bool {
	for _, class := range explicitClasses {
		if scores[class] >= c.threshold {
			return true
		}
	}
	return false
}

// webpToJPEG decodes a sticker so classifiers that only read JPEG/PNG can score it.
func webpToJPEG(data []byte) ([]byte, error) {
	img, err := webp.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode webp: %w", err)
	}
	var out bytes.Buffer
	if err := imaging.Encode(&out, img, imaging.JPEG, imaging.JPEGQuality(90)); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}

func extensionFor(mimeType string) string {
	switch {
	case strings.Contains(mimeType, "png"):
		return ".png"
	case strings.Contains(mimeType, "gif"):
		return ".gif"
	default:
		return ".jpg"
	}
}

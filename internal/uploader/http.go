package uploader

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/manpen/stride/internal/jobprocessor"
)

// HTTPUploader posts job descriptors to a stride server's /api/solution
// endpoint.
type HTTPUploader struct {
	endpoint string
	client   *http.Client
}

// NewHTTPUploader builds an HTTPUploader that posts to serverURL +
// "/api/solution". insecureSkipVerify mirrors the original's
// danger_accept_invalid_certs(true), kept for self-signed dev servers.
func NewHTTPUploader(serverURL string, insecureSkipVerify bool) (*HTTPUploader, error) {
	u, err := url.Parse(serverURL)
	if err != nil {
		return nil, fmt.Errorf("uploader: parse server url: %w", err)
	}
	u = u.JoinPath("/api/solution")

	transport := http.DefaultTransport.(*http.Transport).Clone()
	if insecureSkipVerify {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
	}

	return &HTTPUploader{
		endpoint: u.String(),
		client:   &http.Client{Transport: transport, Timeout: 30 * time.Second},
	}, nil
}

type wireJob struct {
	IDigest string `json:"idigest"`
	Runtime float64 `json:"runtime"`
	Result  string  `json:"result"`
	Score   *uint32 `json:"score,omitempty"`
}

type transferToServer struct {
	Jobs []wireJob `json:"jobs"`
}

type transferFromServer struct {
	BestScores map[string]uint32 `json:"best_scores"`
}

// Upload implements Uploader.
func (u *HTTPUploader) Upload(ctx context.Context, jobs []jobprocessor.Descriptor) (map[[16]byte]uint32, error) {
	payload := transferToServer{Jobs: make([]wireJob, 0, len(jobs))}
	for _, j := range jobs {
		wj := wireJob{
			IDigest: hex.EncodeToString(j.IDigest[:]),
			Runtime: j.Runtime.Seconds(),
			Result:  j.Outcome.Result.String(),
		}
		if j.Outcome.Result.IsValid() {
			size := uint32(j.Outcome.Result.Size())
			wj.Score = &size
		}
		payload.Jobs = append(payload.Jobs, wj)
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("uploader: marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("uploader: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := u.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("uploader: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		text, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("uploader: server returned %s: %s", resp.Status, text)
	}

	var decoded transferFromServer
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("uploader: decode response: %w", err)
	}

	out := make(map[[16]byte]uint32, len(decoded.BestScores))
	for hexDigest, score := range decoded.BestScores {
		raw, err := hex.DecodeString(hexDigest)
		if err != nil || len(raw) != 16 {
			continue
		}
		var digest [16]byte
		copy(digest[:], raw)
		out[digest] = score
	}

	return out, nil
}

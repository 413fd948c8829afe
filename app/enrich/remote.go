package enrich

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/Fredkai/kaitech-news-intelligence/app/cache"
)

const (
	remoteTimeout  = 10 * time.Second
	remoteCacheTTL = 24 * time.Hour
)

// Remote calls a sibling analysis service over HTTP. Responses are cached in
// the cache store keyed by content hash, so repeated items across cycles do
// not re-hit the model. Failures surface as errors; the caller keeps the item
// with default enrichment.
type Remote struct {
	client *http.Client
	url    string
	store  cache.Store
}

func NewRemote(url string, store cache.Store) *Remote {
	return &Remote{
		client: &http.Client{Timeout: remoteTimeout},
		url:    url,
		store:  store,
	}
}

type remoteRequest struct {
	Text string `json:"text"`
}

func (r *Remote) Enrich(ctx context.Context, text string) (Result, error) {
	key := cache.EnrichKey(contentHash(text))

	var cached Result
	if found, _ := r.store.Get(ctx, key, &cached); found {
		return normalize(cached), nil
	}

	body, err := json.Marshal(remoteRequest{Text: text})
	if err != nil {
		return Result{}, fmt.Errorf("failed to marshal enrichment request: %w", err)
	}

	timeoutCtx, cancel := context.WithTimeout(ctx, remoteTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(timeoutCtx, "POST", r.url, bytes.NewReader(body))
	if err != nil {
		return Result{}, fmt.Errorf("failed to create enrichment request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return Result{}, fmt.Errorf("enrichment service unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Result{}, fmt.Errorf("enrichment service returned status %d", resp.StatusCode)
	}

	var result Result
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return Result{}, fmt.Errorf("failed to decode enrichment response: %w", err)
	}

	result = normalize(result)

	// Best-effort write-back; a degraded cache just means re-asking next time
	_ = r.store.Set(ctx, key, result, remoteCacheTTL)

	return result, nil
}

func contentHash(text string) string {
	hash := sha256.Sum256([]byte(text))
	return hex.EncodeToString(hash[:])
}

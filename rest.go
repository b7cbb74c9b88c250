package featureflow

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// SDK identification sent with every request.
const (
	clientHeader = "X-Featureflow-Client"
	clientName   = "GoClient"
	sdkVersion   = "1.0.0"
)

// queuedEvent is one analytics event awaiting flush: an evaluation report
// or a goal occurrence. Events live only in memory between enqueue and
// flush; a crash during the flush window loses them.
type queuedEvent struct {
	Type              string            `json:"type"`
	FeatureKey        string            `json:"featureKey,omitempty"`
	EvaluatedVariant  string            `json:"evaluatedVariant,omitempty"`
	GoalKey           string            `json:"goalKey,omitempty"`
	Impressions       int               `json:"impressions"`
	EvaluatedFeatures EvaluatedFeatures `json:"evaluatedFeatures,omitempty"`
	User              User              `json:"user"`
	Timestamp         time.Time         `json:"timestamp"`
}

const (
	eventTypeEvaluate = "evaluate"
	eventTypeGoal     = "goal"
)

// restClient is the network boundary: it issues the feature fetch and the
// event post against the remote service, bounded by the configured timeout.
type restClient struct {
	apiKey     string
	baseURL    string
	eventsURL  string
	timeout    time.Duration
	httpClient *http.Client
}

func newRESTClient(apiKey string, cfg Config, httpClient *http.Client) *restClient {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &restClient{
		apiKey:     apiKey,
		baseURL:    strings.TrimSuffix(cfg.BaseURL, "/"),
		eventsURL:  strings.TrimSuffix(cfg.EventsURL, "/"),
		timeout:    cfg.Timeout,
		httpClient: httpClient,
	}
}

// fetchFeatures retrieves the feature definitions for user. The optional
// keys narrow the response to a subset of features.
func (r *restClient) fetchFeatures(ctx context.Context, user User, keys ...string) (Features, error) {
	ctx, cancel := r.bound(ctx)
	defer cancel()

	blob, err := json.Marshal(user)
	if err != nil {
		return nil, errors.Join(ErrNetwork, fmt.Errorf("encode user: %w", err))
	}

	endpoint := fmt.Sprintf("%s/api/js/v1/evaluate/%s/user/%s",
		r.baseURL, r.apiKey, base64.URLEncoding.EncodeToString(blob))
	if len(keys) > 0 {
		endpoint += "?keys=" + strings.Join(keys, ",")
	}

	resp, err := r.do(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.Join(ErrNetwork, fmt.Errorf("unexpected status %d", resp.StatusCode))
	}
	if ct := resp.Header.Get("Content-Type"); !strings.Contains(ct, "application/json") {
		return nil, errors.Join(ErrNetwork, fmt.Errorf("unexpected content type %q", ct))
	}

	var features Features
	if err := json.NewDecoder(resp.Body).Decode(&features); err != nil {
		return nil, errors.Join(ErrNetwork, fmt.Errorf("decode features: %w", err))
	}
	// A literal null body decodes to a nil map; adopt it as an empty
	// feature set so it caches and evaluates like one.
	if features == nil {
		features = Features{}
	}
	return features, nil
}

// postEvents delivers one batch of analytics events. The response body is
// ignored; only the status matters, and even that is merely reported to the
// caller for logging.
func (r *restClient) postEvents(ctx context.Context, events []queuedEvent) error {
	ctx, cancel := r.bound(ctx)
	defer cancel()

	body, err := json.Marshal(events)
	if err != nil {
		return errors.Join(ErrNetwork, fmt.Errorf("encode events: %w", err))
	}

	endpoint := fmt.Sprintf("%s/api/js/v1/event/%s", r.eventsURL, r.apiKey)
	resp, err := r.do(ctx, http.MethodPost, endpoint, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return errors.Join(ErrNetwork, fmt.Errorf("unexpected status %d", resp.StatusCode))
	}
	return nil
}

// bound applies the configured timeout to ctx. Callers consume the
// response body before their deferred cancel runs.
func (r *restClient) bound(ctx context.Context) (context.Context, context.CancelFunc) {
	if r.timeout > 0 {
		return context.WithTimeout(ctx, r.timeout)
	}
	return ctx, func() {}
}

func (r *restClient) do(ctx context.Context, method, endpoint string, body []byte) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return nil, errors.Join(ErrNetwork, err)
	}
	req.Header.Set(clientHeader, clientName+"/"+sdkVersion)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := r.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, errors.Join(ErrTimeout, err)
		}
		return nil, errors.Join(ErrNetwork, err)
	}
	return resp, nil
}

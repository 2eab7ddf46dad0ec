package loadgen

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"net/http"
	"net/http/cookiejar"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// Options drive one load run against a live instance's public API.
type Options struct {
	BaseURL     string
	Profile     string
	Workers     int
	Duration    time.Duration
	RequestRate int
}

type Stats struct {
	Requests      int64
	StatusClasses map[string]int64
	RateLimited   int64
	Errors        int64
}

type worker struct {
	client  *http.Client
	baseURL string
	rng     *rand.Rand
}

// Run fires synthetic traffic shaped by the profile: "read" only lists and
// fetches, "vote" seeds a question and hammers the vote endpoints, "mixed"
// does both. Each worker keeps its own cookie jar so it acts as one
// anonymous identity.
func Run(ctx context.Context, opts Options) (*Stats, error) {
	opts = normalizeOptions(opts)
	questionID, answerIDs, err := seedContent(ctx, opts.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("seed content: %w", err)
	}

	stats := &Stats{StatusClasses: make(map[string]int64)}
	var mu sync.Mutex
	interval := time.Second / time.Duration(opts.RequestRate)

	runCtx, cancel := context.WithTimeout(ctx, opts.Duration)
	defer cancel()

	g, runCtx := errgroup.WithContext(runCtx)
	for i := 0; i < opts.Workers; i++ {
		seed := int64(i + 1)
		g.Go(func() error {
			jar, err := cookiejar.New(nil)
			if err != nil {
				return err
			}
			w := &worker{
				client:  &http.Client{Jar: jar, Timeout: 10 * time.Second},
				baseURL: opts.BaseURL,
				rng:     rand.New(rand.NewSource(seed)),
			}
			ticker := time.NewTicker(interval)
			defer ticker.Stop()
			for {
				select {
				case <-runCtx.Done():
					return nil
				case <-ticker.C:
					status, err := w.fire(runCtx, opts.Profile, questionID, answerIDs)
					mu.Lock()
					stats.Requests++
					if err != nil {
						stats.Errors++
					} else {
						stats.StatusClasses[classifyStatusClass(status)]++
						if status == http.StatusTooManyRequests {
							stats.RateLimited++
						}
					}
					mu.Unlock()
				}
			}
		})
	}
	if err := g.Wait(); err != nil {
		return stats, err
	}
	return stats, nil
}

func (w *worker) fire(ctx context.Context, profile string, questionID uint, answerIDs []uint) (int, error) {
	switch profile {
	case "read":
		return w.get(ctx, "/api/v1/questions")
	case "vote":
		answer := answerIDs[w.rng.Intn(len(answerIDs))]
		return w.post(ctx, fmt.Sprintf("/api/v1/questions/%d/answers/%d/vote", questionID, answer), nil)
	default:
		if w.rng.Intn(2) == 0 {
			return w.get(ctx, fmt.Sprintf("/api/v1/questions/%d", questionID))
		}
		answer := answerIDs[w.rng.Intn(len(answerIDs))]
		return w.post(ctx, fmt.Sprintf("/api/v1/questions/%d/answers/%d/vote", questionID, answer), nil)
	}
}

func (w *worker) get(ctx context.Context, path string) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, w.baseURL+path, nil)
	if err != nil {
		return 0, err
	}
	resp, err := w.client.Do(req)
	if err != nil {
		return 0, err
	}
	resp.Body.Close()
	return resp.StatusCode, nil
}

func (w *worker) post(ctx context.Context, path string, body any) (int, error) {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return 0, err
		}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.baseURL+path, &buf)
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := w.client.Do(req)
	if err != nil {
		return 0, err
	}
	resp.Body.Close()
	return resp.StatusCode, nil
}

func seedContent(ctx context.Context, baseURL string) (uint, []uint, error) {
	client := &http.Client{Timeout: 10 * time.Second}
	q, err := postJSON(ctx, client, baseURL+"/api/v1/questions",
		map[string]string{"title": "load test question", "body": "generated traffic"})
	if err != nil {
		return 0, nil, err
	}
	questionID := uint(q["id"].(float64))

	var answerIDs []uint
	for _, body := range []string{"option a", "option b"} {
		a, err := postJSON(ctx, client,
			fmt.Sprintf("%s/api/v1/questions/%d/answers", baseURL, questionID),
			map[string]string{"body": body})
		if err != nil {
			return 0, nil, err
		}
		answerIDs = append(answerIDs, uint(a["id"].(float64)))
	}
	return questionID, answerIDs, nil
}

func postJSON(ctx context.Context, client *http.Client, url string, body any) (map[string]any, error) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, &buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		return nil, fmt.Errorf("unexpected status %d from %s", resp.StatusCode, url)
	}
	var env struct {
		Data map[string]any `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, err
	}
	if env.Data == nil {
		return nil, fmt.Errorf("empty data from %s", url)
	}
	return env.Data, nil
}

func normalizeOptions(opts Options) Options {
	if opts.BaseURL == "" {
		opts.BaseURL = "http://localhost:8080"
	}
	opts.BaseURL = strings.TrimRight(opts.BaseURL, "/")
	opts.Profile = normalizeProfile(opts.Profile)
	if opts.Workers <= 0 {
		opts.Workers = 4
	}
	if opts.Duration <= 0 {
		opts.Duration = 30 * time.Second
	}
	if opts.RequestRate <= 0 {
		opts.RequestRate = 10
	}
	return opts
}

func normalizeProfile(profile string) string {
	profile = strings.ToLower(strings.TrimSpace(profile))
	switch profile {
	case "read", "vote", "mixed":
		return profile
	case "":
		return "mixed"
	default:
		return "mixed"
	}
}

func classifyStatusClass(status int) string {
	switch {
	case status >= 200 && status < 300:
		return "2xx"
	case status >= 300 && status < 400:
		return "3xx"
	case status >= 400 && status < 500:
		return "4xx"
	case status >= 500 && status < 600:
		return "5xx"
	default:
		return "other"
	}
}

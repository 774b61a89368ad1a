package source

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"

	"jobwatch/internal/config"
	"jobwatch/internal/domain/model"
)

const (
	workdayPageSize = 20
	// Workday boards can be huge; beyond this offset the listings are too
	// stale to be worth polling every cycle.
	workdayMaxOffset = 200
)

var (
	workdayBoardURL = regexp.MustCompile(`^https?://([^.]+)\.(wd\d+)\.myworkdayjobs\.com/([^/?]+)`)
	// Host-agnostic: proxied or custom Workday domains carry the same
	// /wday/cxs/<tenant>/<board> path.
	workdayCxsURL = regexp.MustCompile(`^(https?://[^/]+)/wday/cxs/[^/]+/([^/?]+)`)
)

// workdaySource reads the Workday CXS job postings API. The configured URL
// may be either the human-readable board page or the CXS endpoint itself.
type workdaySource struct {
	name    string
	apiURL  string
	siteURL string
	client  *http.Client
}

func newWorkday(cfg config.SourceConfig, client *http.Client) (Source, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("%w: workday needs a url", ErrMisconfigured)
	}
	apiURL, err := workdayAPIURL(cfg.URL)
	if err != nil {
		return nil, err
	}
	return &workdaySource{
		name:    cfg.Name,
		apiURL:  apiURL,
		siteURL: workdaySiteURL(cfg.URL),
		client:  client,
	}, nil
}

// workdayAPIURL converts a board page URL like
// https://acme.wd5.myworkdayjobs.com/Careers into the CXS jobs endpoint.
// CXS URLs pass through unchanged.
func workdayAPIURL(url string) (string, error) {
	if strings.Contains(url, "/wday/cxs/") {
		return url, nil
	}
	m := workdayBoardURL.FindStringSubmatch(url)
	if m == nil {
		return "", fmt.Errorf("%w: unrecognized workday url %q", ErrMisconfigured, url)
	}
	return fmt.Sprintf("https://%s.%s.myworkdayjobs.com/wday/cxs/%s/%s/jobs", m[1], m[2], m[1], m[3]), nil
}

// workdaySiteURL derives the base for posting links. Workday returns each
// posting's externalPath relative to the board site.
func workdaySiteURL(url string) string {
	if m := workdayCxsURL.FindStringSubmatch(url); m != nil {
		return m[1] + "/" + m[2]
	}
	url, _, _ = strings.Cut(url, "?")
	return strings.TrimRight(url, "/")
}

func (w *workdaySource) Name() string { return w.name }

type workdayRequest struct {
	AppliedFacets map[string]any `json:"appliedFacets"`
	Limit         int            `json:"limit"`
	Offset        int            `json:"offset"`
	SearchText    string         `json:"searchText"`
}

type workdayResponse struct {
	Total       int              `json:"total"`
	JobPostings []workdayPosting `json:"jobPostings"`
}

type workdayPosting struct {
	Title         string `json:"title"`
	ExternalPath  string `json:"externalPath"`
	LocationsText string `json:"locationsText"`
}

func (w *workdaySource) Fetch(ctx context.Context) ([]model.Posting, error) {
	var postings []model.Posting
	for offset := 0; offset <= workdayMaxOffset; offset += workdayPageSize {
		page, total, err := w.fetchPage(ctx, offset)
		if err != nil {
			return postings, fmt.Errorf("offset %d: %w", offset, err)
		}
		if len(page) == 0 {
			break
		}
		postings = append(postings, page...)
		if offset+workdayPageSize >= total {
			break
		}
	}
	return postings, nil
}

func (w *workdaySource) fetchPage(ctx context.Context, offset int) ([]model.Posting, int, error) {
	payload, err := json.Marshal(workdayRequest{
		AppliedFacets: map[string]any{},
		Limit:         workdayPageSize,
		Offset:        offset,
	})
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %w", ErrFetch, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.apiURL, bytes.NewReader(payload))
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %w", ErrFetch, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := w.client.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %w", ErrFetch, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: read body: %w", ErrFetch, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, 0, fmt.Errorf("%w: status %d", ErrFetch, resp.StatusCode)
	}

	var decoded workdayResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return nil, 0, fmt.Errorf("%w: %w", ErrDecode, err)
	}

	page := make([]model.Posting, 0, len(decoded.JobPostings))
	for _, job := range decoded.JobPostings {
		if job.Title == "" || job.ExternalPath == "" {
			continue
		}
		page = append(page, model.Posting{
			Company:  w.name,
			Title:    job.Title,
			URL:      w.siteURL + job.ExternalPath,
			Location: job.LocationsText,
			JobType:  "Full-time",
		})
	}
	return page, decoded.Total, nil
}

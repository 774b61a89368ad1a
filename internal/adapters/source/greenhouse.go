package source

import (
	"context"
	"encoding/json"
	"fmt"
	"html"
	"io"
	"net/http"
	"regexp"
	"strings"

	"jobwatch/internal/config"
	"jobwatch/internal/domain/model"
)

const greenhouseBaseURL = "https://boards-api.greenhouse.io/v1/boards"

// htmlTag matches markup in board-provided descriptions. The boards return
// rendered HTML; matching runs on plain text.
var htmlTag = regexp.MustCompile(`<[^>]*>`)

// greenhouseSource reads the public Greenhouse job board API.
type greenhouseSource struct {
	name   string
	url    string
	client *http.Client
}

func newGreenhouse(cfg config.SourceConfig, client *http.Client) (Source, error) {
	url := cfg.URL
	if url == "" {
		if cfg.Board == "" {
			return nil, fmt.Errorf("%w: greenhouse needs a board or url", ErrMisconfigured)
		}
		url = fmt.Sprintf("%s/%s/jobs?content=true", greenhouseBaseURL, cfg.Board)
	}
	return &greenhouseSource{name: cfg.Name, url: url, client: client}, nil
}

func (g *greenhouseSource) Name() string { return g.name }

type greenhouseResponse struct {
	Jobs []greenhouseJob `json:"jobs"`
}

type greenhouseJob struct {
	Title       string             `json:"title"`
	AbsoluteURL string             `json:"absolute_url"`
	Content     string             `json:"content"`
	Location    greenhouseLocation `json:"location"`
}

type greenhouseLocation struct {
	Name string `json:"name"`
}

func (g *greenhouseSource) Fetch(ctx context.Context) ([]model.Posting, error) {
	body, err := getJSON(ctx, g.client, g.url)
	if err != nil {
		return nil, err
	}

	var resp greenhouseResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecode, err)
	}

	postings := make([]model.Posting, 0, len(resp.Jobs))
	for _, job := range resp.Jobs {
		postings = append(postings, model.Posting{
			Company:     g.name,
			Title:       job.Title,
			URL:         job.AbsoluteURL,
			Location:    job.Location.Name,
			Description: stripHTML(job.Content),
		})
	}
	return postings, nil
}

// stripHTML flattens board-rendered HTML into plain text.
func stripHTML(content string) string {
	text := html.UnescapeString(content)
	text = htmlTag.ReplaceAllString(text, " ")
	return strings.Join(strings.Fields(text), " ")
}

// getJSON performs a GET against a board API and returns the body on 200.
func getJSON(ctx context.Context, client *http.Client, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFetch, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFetch, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %w", ErrFetch, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", ErrFetch, resp.StatusCode)
	}
	return body, nil
}

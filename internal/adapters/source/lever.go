package source

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"jobwatch/internal/config"
	"jobwatch/internal/domain/model"
)

const leverBaseURL = "https://api.lever.co/v0/postings"

// leverSource reads the public Lever postings API.
type leverSource struct {
	name   string
	url    string
	client *http.Client
}

func newLever(cfg config.SourceConfig, client *http.Client) (Source, error) {
	url := cfg.URL
	if url == "" {
		if cfg.Board == "" {
			return nil, fmt.Errorf("%w: lever needs a board or url", ErrMisconfigured)
		}
		url = fmt.Sprintf("%s/%s?mode=json", leverBaseURL, cfg.Board)
	}
	return &leverSource{name: cfg.Name, url: url, client: client}, nil
}

func (l *leverSource) Name() string { return l.name }

type leverPosting struct {
	Text            string          `json:"text"`
	HostedURL       string          `json:"hostedUrl"`
	DescriptionText string          `json:"descriptionPlain"`
	Categories      leverCategories `json:"categories"`
}

type leverCategories struct {
	Location   string `json:"location"`
	Commitment string `json:"commitment"`
}

func (l *leverSource) Fetch(ctx context.Context) ([]model.Posting, error) {
	body, err := getJSON(ctx, l.client, l.url)
	if err != nil {
		return nil, err
	}

	// Lever returns a bare JSON array.
	var items []leverPosting
	if err := json.Unmarshal(body, &items); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecode, err)
	}

	postings := make([]model.Posting, 0, len(items))
	for _, item := range items {
		postings = append(postings, model.Posting{
			Company:     l.name,
			Title:       item.Text,
			URL:         item.HostedURL,
			Location:    item.Categories.Location,
			JobType:     item.Categories.Commitment,
			Description: item.DescriptionText,
		})
	}
	return postings, nil
}

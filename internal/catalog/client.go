// Package catalog abstracts the external cinema-data provider. The
// sync engine consumes the Client interface; the HTTP implementation
// talks to a MovieGlu-shaped API.
package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// ShowingTime is one screening slot, start time as "HH:MM".
type ShowingTime struct {
	StartTime string `json:"start_time"`
}

// Film is a provider record mapped into a neutral shape.
type Film struct {
	Name        string
	Synopsis    string
	Genres      []string
	DurationMin int
	ReleaseDate time.Time
	PosterURL   string
	Showings    []ShowingTime
}

// Client is the external catalog collaborator.
type Client interface {
	// FetchNowShowing returns a bounded page of currently showing films.
	FetchNowShowing(ctx context.Context, limit int) ([]Film, error)
	// FetchShowtimesForCinema returns films with their screening slots
	// at one cinema on one date.
	FetchShowtimesForCinema(ctx context.Context, cinemaID string, date time.Time) ([]Film, error)
}

// HTTPClient implements Client against the provider's REST API.
type HTTPClient struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// NewHTTPClient creates a catalog client
func NewHTTPClient(baseURL, apiKey string) *HTTPClient {
	return &HTTPClient{
		baseURL: baseURL,
		apiKey:  apiKey,
		client:  &http.Client{Timeout: 15 * time.Second},
	}
}

type filmPayload struct {
	FilmName     string `json:"film_name"`
	SynopsisLong string `json:"synopsis_long"`
	Genres       []struct {
		GenreName string `json:"genre_name"`
	} `json:"genres"`
	DurationMins int `json:"duration_mins"`
	ReleaseDates []struct {
		ReleaseDate string `json:"release_date"`
	} `json:"release_dates"`
	Images struct {
		Poster map[string]struct {
			Medium struct {
				FilmImage string `json:"film_image"`
			} `json:"medium"`
		} `json:"poster"`
	} `json:"images"`
	Showings struct {
		Standard struct {
			Times []ShowingTime `json:"times"`
		} `json:"Standard"`
	} `json:"showings"`
}

type filmsResponse struct {
	Films []filmPayload `json:"films"`
}

// FetchNowShowing fetches the now-showing page
func (c *HTTPClient) FetchNowShowing(ctx context.Context, limit int) ([]Film, error) {
	params := url.Values{"n": {strconv.Itoa(limit)}}
	resp, err := c.get(ctx, "/filmsNowShowing/", params)
	if err != nil {
		return nil, err
	}
	return mapFilms(resp.Films), nil
}

// FetchShowtimesForCinema fetches one cinema's showings for one date
func (c *HTTPClient) FetchShowtimesForCinema(ctx context.Context, cinemaID string, date time.Time) ([]Film, error) {
	params := url.Values{
		"cinema_id": {cinemaID},
		"date":      {date.Format("2006-01-02")},
	}
	resp, err := c.get(ctx, "/cinemaShowTimes/", params)
	if err != nil {
		return nil, err
	}
	return mapFilms(resp.Films), nil
}

func (c *HTTPClient) get(ctx context.Context, path string, params url.Values) (*filmsResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.baseURL+path+"?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("x-api-key", c.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("catalog request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("catalog returned status %d for %s", resp.StatusCode, path)
	}

	var payload filmsResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to decode catalog response: %w", err)
	}
	return &payload, nil
}

func mapFilms(payloads []filmPayload) []Film {
	films := make([]Film, 0, len(payloads))
	for _, p := range payloads {
		film := Film{
			Name:        p.FilmName,
			Synopsis:    p.SynopsisLong,
			DurationMin: p.DurationMins,
			Showings:    p.Showings.Standard.Times,
		}
		for _, g := range p.Genres {
			film.Genres = append(film.Genres, g.GenreName)
		}
		if len(p.ReleaseDates) > 0 {
			if d, err := time.Parse("2006-01-02", p.ReleaseDates[0].ReleaseDate); err == nil {
				film.ReleaseDate = d
			}
		}
		if poster, ok := p.Images.Poster["1"]; ok {
			film.PosterURL = poster.Medium.FilmImage
		}
		films = append(films, film)
	}
	return films
}

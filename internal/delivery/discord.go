// Package delivery sends assembled reports to users over Discord direct
// messages. It speaks only the two REST calls it needs: open a DM channel,
// post a message with embeds.
package delivery

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/neexbeast/cirrus/internal/report"
)

const httpTimeout = 10 * time.Second

// ErrForbidden indicates the recipient has direct messages disabled. The
// report itself was produced correctly, so callers swallow this.
var ErrForbidden = errors.New("delivery: recipient blocks direct messages")

const discordDefaultURL = "https://discord.com/api/v10"

// Client is a minimal Discord REST client for direct-message delivery.
type Client struct {
	token   string
	baseURL string
	client  *http.Client
}

// NewClient constructs a Client with the given bot token.
func NewClient(token string) *Client {
	return NewClientWithURL(discordDefaultURL, token)
}

// NewClientWithURL constructs a Client pointing at a custom base URL (for tests).
func NewClientWithURL(baseURL, token string) *Client {
	return &Client{
		token:   token,
		baseURL: baseURL,
		client:  &http.Client{Timeout: httpTimeout},
	}
}

type embedField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline,omitempty"`
}

type embedImage struct {
	URL string `json:"url"`
}

type embedFooter struct {
	Text string `json:"text"`
}

type embed struct {
	Title       string       `json:"title"`
	Description string       `json:"description,omitempty"`
	Color       int          `json:"color"`
	Fields      []embedField `json:"fields,omitempty"`
	Image       *embedImage  `json:"image,omitempty"`
	Footer      *embedFooter `json:"footer,omitempty"`
}

// SendReport opens a DM channel to the user and posts the report as embeds.
// Returns ErrForbidden when the user refuses direct messages.
func (c *Client) SendReport(ctx context.Context, userID int64, rep *report.Report) error {
	channelID, err := c.createDMChannel(ctx, userID)
	if err != nil {
		return err
	}
	return c.postMessage(ctx, channelID, buildEmbeds(rep))
}

func (c *Client) createDMChannel(ctx context.Context, userID int64) (string, error) {
	body := map[string]string{"recipient_id": strconv.FormatInt(userID, 10)}

	var resp struct {
		ID string `json:"id"`
	}
	if err := c.doPost(ctx, c.baseURL+"/users/@me/channels", body, &resp); err != nil {
		return "", fmt.Errorf("opening DM channel for user %d: %w", userID, err)
	}
	return resp.ID, nil
}

func (c *Client) postMessage(ctx context.Context, channelID string, embeds []embed) error {
	body := map[string]any{"embeds": embeds}
	if err := c.doPost(ctx, c.baseURL+"/channels/"+channelID+"/messages", body, nil); err != nil {
		return fmt.Errorf("posting message to channel %s: %w", channelID, err)
	}
	return nil
}

// doPost performs an authenticated POST with a JSON body, decoding the JSON
// response into dst when dst is non-nil.
func (c *Client) doPost(ctx context.Context, rawURL string, body, dst any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshaling request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, rawURL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("creating request for %s: %w", rawURL, err)
	}
	req.Header.Set("Authorization", "Bot "+c.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("POST %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusForbidden {
		return ErrForbidden
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("POST %s returned status %d", rawURL, resp.StatusCode)
	}

	if dst != nil {
		if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
			return fmt.Errorf("decoding response from %s: %w", rawURL, err)
		}
	}
	return nil
}

// Embed accent colors, matching the report kinds.
const (
	colorDaily     = 0x2980B9
	colorAstronomy = 0x1C1C3C
)

// buildEmbeds renders a report into Discord embeds: the atmospheric summary
// and, when present, the astronomy picture as a second embed.
func buildEmbeds(rep *report.Report) []embed {
	st := rep.Station
	obs := rep.Observation
	d := rep.Derived
	temps := rep.Temperatures

	main := embed{
		Title:       fmt.Sprintf("Daily Atmospheric Report: %s, %s", st.City, st.Country),
		Description: fmt.Sprintf("**%s**\n\n*Automated observational data summary*", rep.LocalTime),
		Color:       colorDaily,
		Fields: []embedField{
			{
				Name: "Thermodynamic Data",
				Value: fmt.Sprintf(
					"**Temperature**: %.1f%s (feels like %.1f%s)\n"+
						"**Dewpoint**: %.1f%s | **Heat Index**: %.1f%s\n"+
						"**Pressure**: %.0f hPa | **Humidity**: %.0f%%\n"+
						"**Air Density**: %.4f kg/m³",
					temps.Actual, temps.Symbol, temps.FeelsLike, temps.Symbol,
					temps.Dewpoint, temps.Symbol, temps.HeatIndex, temps.Symbol,
					obs.Pressure, obs.Humidity, d.AirDensity,
				),
			},
			{
				Name: "Cloud Analysis",
				Value: fmt.Sprintf(
					"**Coverage**: %.0f%% (%d/8 oktas) - %s\n**Type**: %s\n**Base Height**: ~%dm AGL",
					obs.CloudCover, d.Clouds.Oktas, d.Clouds.Code, d.Clouds.Description, d.CloudBase,
				),
			},
			{
				Name: "Wind & Visibility",
				Value: fmt.Sprintf(
					"**%.1f m/s** from **%s** (%.0f°)\n**Visibility**: %s",
					obs.WindSpeed, d.WindDirection, obs.WindDeg, d.Visibility,
				),
			},
			{
				Name:  "Observations",
				Value: capitalize(obs.Description),
			},
		},
		Footer: &embedFooter{
			Text: fmt.Sprintf("Station: %.4f°, %.4f° | Next report: %02d:00 tomorrow", st.Lat, st.Lon, st.ReportHour),
		},
	}

	embeds := []embed{main}

	if rep.Astronomy != nil {
		explanation := rep.Astronomy.Explanation
		if len(explanation) > 500 {
			explanation = explanation[:500] + "..."
		}
		embeds = append(embeds, embed{
			Title:       "NASA APOD: " + rep.Astronomy.Title,
			Description: explanation,
			Color:       colorAstronomy,
			Image:       &embedImage{URL: rep.Astronomy.URL},
			Footer:      &embedFooter{Text: "Source: NASA Astronomy Picture of the Day"},
		})
	}

	return embeds
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

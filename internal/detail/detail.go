/*
Package detail retrieves the full text of a single announcement by replaying
the portal's partial-ajax request with a captured session.
*/
package detail

import (
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"

	"github.com/shanehull/regscraper/internal/htmltext"
	"github.com/shanehull/regscraper/internal/logger"
	"github.com/shanehull/regscraper/internal/retry"
	"github.com/shanehull/regscraper/internal/types"
)

const (
	DefaultEndpoint = "https://www.handelsregister.de/rp_web/xhtml/bekanntmachungen.xhtml"
	userAgent       = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36"

	formID           = "bekanntMachungenForm"
	sourceID         = formID + ":bekanntmachung"
	viewStateField   = "javax.faces.ViewState"
	primaryContainer = "#rrbPanel_content"
	specialContainer = "#srbPanel_content"
)

// ErrMalformedResponse is wrapped when the reply is not a usable partial response.
var ErrMalformedResponse = errors.New("malformed partial response")

// StatusError is returned for a non-success HTTP status.
type StatusError struct {
	StatusCode int
	Status     string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("detail request failed with status %d %s", e.StatusCode, e.Status)
}

// Config holds the transport and retry settings of a Fetcher.
type Config struct {
	Endpoint       string
	ConnectTimeout time.Duration
	ReadTimeout    time.Duration
	Policy         retry.Policy
}

// DefaultConfig returns three attempts, retrying only network timeouts, with a
// 30 second connect and 60 second read timeout.
func DefaultConfig() Config {
	return Config{
		Endpoint:       DefaultEndpoint,
		ConnectTimeout: 30 * time.Second,
		ReadTimeout:    60 * time.Second,
		Policy: retry.Policy{
			MaxAttempts: 3,
			Retryable:   retry.IsTimeout,
			Delay:       time.Second,
		},
	}
}

// Fetcher performs detail requests. It is safe for sequential use only.
type Fetcher struct {
	cfg    Config
	client *resty.Client
	log    logger.Interface
}

func New(cfg Config, log logger.Interface) *Fetcher {
	if cfg.Endpoint == "" {
		cfg.Endpoint = DefaultEndpoint
	}

	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           (&net.Dialer{Timeout: cfg.ConnectTimeout}).DialContext,
		TLSHandshakeTimeout:   cfg.ConnectTimeout,
		ResponseHeaderTimeout: cfg.ReadTimeout,
		DisableKeepAlives:     true,
	}

	client := resty.New().
		SetTransport(transport).
		SetHeader("User-Agent", userAgent).
		SetHeader("Accept-Language", "de-DE,de").
		SetDisableWarn(true)
	if cfg.ConnectTimeout > 0 && cfg.ReadTimeout > 0 {
		client.SetTimeout(cfg.ConnectTimeout + cfg.ReadTimeout)
	}

	return &Fetcher{cfg: cfg, client: client, log: log.WithComponent("detail")}
}

// Fetch requests the detail text of announcement id published under
// dateToken. An empty string with a nil error means the response held no
// text in either content container.
func (f *Fetcher) Fetch(ctx context.Context, dateToken, id string, session types.Session) (string, error) {
	var text string

	policy := f.cfg.Policy
	policy.OnRetry = func(err error, attempt int) {
		f.log.Warn("Retrying detail request", "id", id, "attempt", attempt, "error", err)
	}

	err := retry.Do(ctx, policy, func(ctx context.Context) error {
		body, err := f.post(ctx, dateToken, id, session)
		if err != nil {
			return err
		}
		text, err = extract(body)
		return err
	})
	if err != nil {
		return "", fmt.Errorf("failed to fetch details for %s/%s: %w", dateToken, id, err)
	}

	return text, nil
}

func (f *Fetcher) post(ctx context.Context, dateToken, id string, session types.Session) ([]byte, error) {
	resp, err := f.client.R().
		SetContext(ctx).
		SetHeader("Faces-Request", "partial/ajax").
		SetHeader("X-Requested-With", "XMLHttpRequest").
		SetCookies(session.Cookies).
		SetFormData(map[string]string{
			"javax.faces.partial.ajax":    "true",
			"javax.faces.source":          sourceID,
			"javax.faces.partial.execute": "@all",
			"javax.faces.partial.render":  formID,
			sourceID:                      sourceID,
			formID:                        formID,
			"datum":                       dateToken,
			"id":                          id,
			viewStateField:                session.ViewState,
		}).
		Post(f.cfg.Endpoint)
	if err != nil {
		return nil, err
	}

	if code := resp.StatusCode(); code < http.StatusOK || code >= http.StatusMultipleChoices {
		return nil, &StatusError{StatusCode: resp.StatusCode(), Status: http.StatusText(resp.StatusCode())}
	}

	return resp.Body(), nil
}

type partialResponse struct {
	XMLName xml.Name `xml:"partial-response"`
	Updates []struct {
		ID      string `xml:"id,attr"`
		Content string `xml:",chardata"`
	} `xml:"changes>update"`
	Error *struct {
		Name    string `xml:"error-name"`
		Message string `xml:"error-message"`
	} `xml:"error"`
}

// extract pulls the markup fragment out of the XML envelope and returns its
// normalised text.
func extract(body []byte) (string, error) {
	var pr partialResponse
	if err := xml.Unmarshal(body, &pr); err != nil {
		return "", fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if pr.Error != nil {
		return "", fmt.Errorf("%w: server error %s: %s", ErrMalformedResponse, pr.Error.Name, pr.Error.Message)
	}

	var fragment string
	found := false
	for _, u := range pr.Updates {
		if strings.Contains(u.ID, viewStateField) {
			continue
		}
		fragment, found = u.Content, true
		break
	}
	if !found {
		return "", fmt.Errorf("%w: no update fragment", ErrMalformedResponse)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return "", fmt.Errorf("failed to parse detail fragment: %w", err)
	}

	if text := containerText(doc, primaryContainer); text != "" {
		return text, nil
	}
	return containerText(doc, specialContainer), nil
}

func containerText(doc *goquery.Document, selector string) string {
	var sb strings.Builder
	doc.Find(selector).Each(func(_ int, s *goquery.Selection) {
		for _, n := range s.Nodes {
			sb.WriteString(htmltext.Text(n))
		}
	})
	return htmltext.Normalize(sb.String())
}

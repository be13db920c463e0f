package euvd

import (
	"net/http"
	"net/url"
	"strconv"

	"github.com/parnurzeal/gorequest"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/tidwall/gjson"
	"golang.org/x/xerrors"

	"github.com/euvd-report/euvd-report/types"
	"github.com/euvd-report/euvd-report/utils"
)

const (
	apiURL    = "https://euvdservices.enisa.europa.eu/api/vulnerabilities"
	userAgent = "VulnerabilityQueryScript/1.0"

	// only the first page is fetched; products with more vulnerabilities are truncated
	pageSize = 100

	previewLen      = 500
	errorPreviewLen = 200
)

var (
	ErrMalformedJSON   = xerrors.New("malformed JSON")
	ErrUnexpectedShape = xerrors.New("unexpected data structure")
)

// StatusError is returned when the API answers with anything but 200.
type StatusError struct {
	StatusCode int
	URL        string
}

func (e *StatusError) Error() string {
	return "HTTP error. status code: " + strconv.Itoa(e.StatusCode) + ", url: " + e.URL
}

// Fetcher performs a GET request and hands back the status code and body.
type Fetcher interface {
	Get(url string, header map[string]string) (int, []byte, error)
}

// Archiver receives the raw body of every successful response.
type Archiver interface {
	Archive(product, vendor string, exploited *bool, body []byte) error
}

type httpFetcher struct{}

func (httpFetcher) Get(url string, header map[string]string) (int, []byte, error) {
	req := gorequest.New().Get(url)
	for k, v := range header {
		req.Set(k, v)
	}
	resp, body, errs := req.EndBytes()
	if len(errs) > 0 {
		return 0, nil, xerrors.Errorf("HTTP error. url: %s, err: %w", url, errs[0])
	}
	return resp.StatusCode, body, nil
}

type options struct {
	url       string
	userAgent string
	pageSize  int
	fetcher   Fetcher
	archiver  Archiver
	logger    zerolog.Logger
}

type Option func(*options)

func WithURL(url string) Option {
	return func(opts *options) { opts.url = url }
}

func WithUserAgent(ua string) Option {
	return func(opts *options) { opts.userAgent = ua }
}

func WithPageSize(size int) Option {
	return func(opts *options) { opts.pageSize = size }
}

func WithFetcher(f Fetcher) Option {
	return func(opts *options) { opts.fetcher = f }
}

func WithArchiver(a Archiver) Option {
	return func(opts *options) { opts.archiver = a }
}

func WithLogger(logger zerolog.Logger) Option {
	return func(opts *options) { opts.logger = logger }
}

type Client struct {
	*options
}

func NewClient(opts ...Option) Client {
	o := &options{
		url:       apiURL,
		userAgent: userAgent,
		pageSize:  pageSize,
		fetcher:   httpFetcher{},
		logger:    log.Logger,
	}

	for _, opt := range opts {
		opt(o)
	}

	return Client{
		options: o,
	}
}

// Query fetches the vulnerabilities of one product/vendor pair. A nil
// exploited leaves the filter out of the request.
func (c Client) Query(product, vendor string, exploited *bool) ([]types.Record, error) {
	u, err := c.queryURL(product, vendor, exploited)
	if err != nil {
		return nil, err
	}

	status, body, err := c.fetcher.Get(u, map[string]string{"User-Agent": c.userAgent})
	if err != nil {
		return nil, xerrors.Errorf("unable to query %s from %s: %w", product, vendor, err)
	}
	if status != http.StatusOK {
		c.logger.Warn().Msgf("Error querying API for %s from %s: %d", product, vendor, status)
		c.logger.Warn().Msgf("Response content: %s...", utils.Truncate(string(body), errorPreviewLen))
		return nil, &StatusError{StatusCode: status, URL: u}
	}

	if c.archiver != nil {
		if aerr := c.archiver.Archive(product, vendor, exploited, body); aerr != nil {
			c.logger.Warn().Err(aerr).Msgf("Unable to archive the response for %s from %s", product, vendor)
		}
	}

	records, skipped, err := ExtractItems(body)
	switch {
	case xerrors.Is(err, ErrMalformedJSON):
		c.logger.Warn().Msgf("Error decoding JSON for %s from %s", product, vendor)
		c.logger.Warn().Msgf("Response content: %s...", utils.Truncate(string(body), errorPreviewLen))
		return nil, xerrors.Errorf("%s from %s: %w", product, vendor, err)
	case err != nil:
		c.logger.Warn().Msgf("Unexpected data structure for %s %s:", product, vendor)
		c.logger.Warn().Msg(utils.Preview(body, previewLen))
		return nil, xerrors.Errorf("%s from %s: %w", product, vendor, err)
	}

	for _, serr := range skipped {
		c.logger.Warn().Err(serr).Msgf("Skipping an item for %s from %s", product, vendor)
	}
	c.logger.Info().Msgf("Received data for %s from %s:", product, vendor)
	c.logger.Info().Msg(utils.Preview(body, previewLen))

	return records, nil
}

func (c Client) queryURL(product, vendor string, exploited *bool) (string, error) {
	u, err := url.Parse(c.url)
	if err != nil {
		return "", xerrors.Errorf("unable to parse %q base url: %w", c.url, err)
	}
	q := u.Query()
	q.Set("product", product)
	q.Set("vendor", vendor)
	q.Set("size", strconv.Itoa(c.pageSize))
	if exploited != nil {
		q.Set("exploited", strconv.FormatBool(*exploited))
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// ExtractItems pulls the records out of a response body. Both
// {"items": [...]} and a bare array are accepted. Items that aren't JSON
// objects are left out and reported in skipped.
func ExtractItems(body []byte) (records []types.Record, skipped []error, err error) {
	if !gjson.ValidBytes(body) {
		return nil, nil, ErrMalformedJSON
	}

	parsed := gjson.ParseBytes(body)
	var items gjson.Result
	switch {
	case parsed.IsArray():
		items = parsed
	case parsed.IsObject() && parsed.Get("items").IsArray():
		items = parsed.Get("items")
	case parsed.IsObject():
		return nil, nil, xerrors.Errorf("object without items: %w", ErrUnexpectedShape)
	default:
		return nil, nil, xerrors.Errorf("%s response: %w", parsed.Type, ErrUnexpectedShape)
	}

	for i, item := range items.Array() {
		record, perr := types.ParseRecord(item)
		if perr != nil {
			skipped = append(skipped, xerrors.Errorf("item #%d: %w", i, perr))
			continue
		}
		records = append(records, record)
	}
	return records, skipped, nil
}

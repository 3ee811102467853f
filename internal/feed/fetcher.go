package feed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/bilgisen/postgen/internal/logger"
	"github.com/bilgisen/postgen/internal/models"
)

const userAgent = "postgen/1.0 (+https://github.com/bilgisen/postgen)"

// ErrTransientIngestionGap marks a source that yielded nothing or only part
// of its data in a run. It is logged and reported, never fatal.
var ErrTransientIngestionGap = errors.New("transient ingestion gap")

// Adapter pulls raw records from one external source
type Adapter interface {
	Source() models.Source
	Fetch(ctx context.Context) ([]models.RawRecord, error)
}

// Gap records a source that failed, fully or partially, during a run
type Gap struct {
	Source models.Source `json:"source"`
	Err    error         `json:"-"`
	Reason string        `json:"reason"`
}

func (g Gap) Error() string {
	return fmt.Sprintf("%s: %v", g.Source, g.Err)
}

func (g Gap) Unwrap() error {
	return g.Err
}

func newGap(source models.Source, err error) Gap {
	err = fmt.Errorf("%w: %v", ErrTransientIngestionGap, err)
	return Gap{Source: source, Err: err, Reason: err.Error()}
}

// NewHTTPClient returns the resty client shared by the JSON and Atom adapters
func NewHTTPClient(timeout time.Duration, retries int) *resty.Client {
	return resty.New().
		SetTimeout(timeout).
		SetRetryCount(retries).
		SetRetryWaitTime(2*time.Second).
		SetRetryMaxWaitTime(10*time.Second).
		SetHeader("User-Agent", userAgent)
}

// getJSON fetches url and decodes the JSON body into out
func getJSON(ctx context.Context, client *resty.Client, url string, params map[string]string, out any) error {
	resp, err := client.R().
		SetContext(ctx).
		SetHeader("Accept", "application/json").
		SetQueryParams(params).
		Get(url)
	if err != nil {
		return fmt.Errorf("failed to fetch %s: %w", url, err)
	}

	if resp.StatusCode() != http.StatusOK {
		return fmt.Errorf("unexpected status code %d from %s", resp.StatusCode(), url)
	}

	if err := json.Unmarshal(resp.Body(), out); err != nil {
		return fmt.Errorf("failed to decode response from %s: %w", url, err)
	}
	return nil
}

// FetchResult holds the records of every adapter in adapter order, plus the
// sources that failed
type FetchResult struct {
	Records []models.RawRecord
	Gaps    []Gap
}

// Fetcher runs a set of adapters concurrently
type Fetcher struct {
	adapters []Adapter
}

func NewFetcher(adapters ...Adapter) *Fetcher {
	return &Fetcher{adapters: adapters}
}

// Adapters returns the configured adapters
func (f *Fetcher) Adapters() []Adapter {
	return f.adapters
}

// FetchAll queries every adapter concurrently. A failing adapter contributes
// whatever records it managed to read and a Gap.
func (f *Fetcher) FetchAll(ctx context.Context) FetchResult {
	log := logger.Component("fetcher")

	type result struct {
		index   int
		records []models.RawRecord
		err     error
	}

	results := make(chan result, len(f.adapters))
	for i, a := range f.adapters {
		go func(i int, a Adapter) {
			start := time.Now()
			records, err := a.Fetch(ctx)
			log.Debug().
				Str("source", string(a.Source())).
				Int("records", len(records)).
				Dur("duration", time.Since(start)).
				Msg("Adapter finished")
			results <- result{index: i, records: records, err: err}
		}(i, a)
	}

	perAdapter := make([][]models.RawRecord, len(f.adapters))
	var out FetchResult
	for range f.adapters {
		res := <-results
		source := f.adapters[res.index].Source()
		perAdapter[res.index] = res.records

		switch {
		case res.err != nil:
			out.Gaps = append(out.Gaps, newGap(source, res.err))
		case len(res.records) == 0:
			out.Gaps = append(out.Gaps, newGap(source, errors.New("no records returned")))
		}
	}

	for _, records := range perAdapter {
		out.Records = append(out.Records, records...)
	}
	sortGaps(out.Gaps)

	for _, g := range out.Gaps {
		log.Warn().Str("source", string(g.Source)).Err(g.Err).Msg("Source yielded incomplete data")
	}
	return out
}

func sortGaps(gaps []Gap) {
	sort.SliceStable(gaps, func(i, j int) bool {
		return gaps[i].Source.Priority() < gaps[j].Source.Priority()
	})
}

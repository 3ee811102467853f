package feed

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/bilgisen/postgen/internal/models"
)

func jsonHandler(body string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, body)
	}
}

func TestHackerNewsFetch(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/topstories.json", jsonHandler(`[1, 2, 3, 4]`))
	mux.HandleFunc("/item/1.json", jsonHandler(`{"id":1,"type":"story","title":"Rust in the kernel","url":"https://lwn.net/x","time":1715236200,"score":120,"descendants":30}`))
	mux.HandleFunc("/item/2.json", jsonHandler(`{"id":2,"type":"job","title":"We are hiring"}`))
	mux.HandleFunc("/item/3.json", jsonHandler(`{"id":3,"type":"story","title":"Ask HN: tooling?","text":"<p>What do you use?</p>","time":1715236200,"score":10}`))
	srv := httptest.NewServer(mux)
	defer srv.Close()

	hn := NewHackerNews(NewHTTPClient(5*time.Second, 0), srv.URL, 3, 2)
	records, err := hn.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 stories, got %d", len(records))
	}
	if records[0].ExternalID != "1" || *records[0].Engagement != 150 {
		t.Errorf("unexpected first record: %+v", records[0])
	}
	if records[0].PublishedRaw != "2024-05-09T06:30:00Z" {
		t.Errorf("PublishedRaw = %q", records[0].PublishedRaw)
	}
	if records[1].URL != "https://news.ycombinator.com/item?id=3" {
		t.Errorf("self post should link to HN, got %q", records[1].URL)
	}
}

func TestDevToFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("top") != "7" || q.Get("per_page") != "5" {
			t.Errorf("unexpected query: %s", r.URL.RawQuery)
		}
		switch q.Get("tag") {
		case "devops":
			fmt.Fprint(w, `[{"id":10,"title":"Pipelines","url":"https://dev.to/p","description":"d","published_at":"2024-05-09T06:30:00Z","public_reactions_count":12,"comments_count":3}]`)
		case "ai":
			fmt.Fprint(w, `[{"id":10,"title":"Pipelines","url":"https://dev.to/p"},{"id":11,"title":"Agents","url":"https://dev.to/a"}]`)
		default:
			w.WriteHeader(http.StatusInternalServerError)
		}
	}))
	defer srv.Close()

	d := NewDevTo(NewHTTPClient(5*time.Second, 0), srv.URL, []string{"devops", "ai", "broken"}, 5)
	records, err := d.Fetch(context.Background())
	if err == nil || !strings.Contains(err.Error(), "broken") {
		t.Errorf("expected an error for the failing tag, got %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 unique records, got %d", len(records))
	}
	if records[0].CategoryHint != models.CategoryDevOps || *records[0].Engagement != 15 {
		t.Errorf("unexpected first record: %+v", records[0])
	}
	if records[1].CategoryHint != models.CategoryAI {
		t.Errorf("second record hint = %q", records[1].CategoryHint)
	}
}

func TestRedditFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/r/devops/top.json" || r.URL.Query().Get("t") != "week" {
			t.Errorf("unexpected request %s", r.URL.String())
		}
		fmt.Fprint(w, `{"data":{"children":[
			{"data":{"id":"a1","title":"Weekly thread","stickied":true,"subreddit":"devops"}},
			{"data":{"id":"b2","title":"Terraform drift at scale","url":"https://blog/x","created_utc":1715236200.0,"score":300,"num_comments":45,"subreddit":"devops"}},
			{"data":{"id":"c3","title":"How do you do on-call?","is_self":true,"permalink":"/r/devops/comments/c3/","selftext":"question","score":80,"num_comments":20,"subreddit":"devops"}}
		]}}`)
	}))
	defer srv.Close()

	r := NewReddit(NewHTTPClient(5*time.Second, 0), srv.URL, []string{"devops"}, 10)
	records, err := r.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("stickied posts must be skipped, got %d records", len(records))
	}
	if *records[0].Engagement != 345 || records[0].CategoryHint != models.CategoryDevOps {
		t.Errorf("unexpected record: %+v", records[0])
	}
	if records[1].URL != srv.URL+"/r/devops/comments/c3/" {
		t.Errorf("self post URL = %q", records[1].URL)
	}
}

const arxivFeed = `<?xml version="1.0" encoding="UTF-8"?>
<feed xmlns="http://www.w3.org/2005/Atom">
  <title>ArXiv Query</title>
  <entry>
    <id>http://arxiv.org/abs/2405.01234v2</id>
    <published>2024-05-09T06:30:00Z</published>
    <title>Sparse Mixture of Experts
      for Long Context</title>
    <summary>  We study   routing. </summary>
    <link href="http://arxiv.org/abs/2405.01234v2" rel="alternate" type="text/html"/>
    <category term="cs.LG" scheme="http://arxiv.org/schemas/atom"/>
    <category term="cs.AI" scheme="http://arxiv.org/schemas/atom"/>
  </entry>
</feed>`

func TestArXivFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if q := r.URL.Query().Get("search_query"); q != "cat:cs.AI OR cat:cs.LG" {
			t.Errorf("search_query = %q", q)
		}
		w.Header().Set("Content-Type", "application/atom+xml")
		fmt.Fprint(w, arxivFeed)
	}))
	defer srv.Close()

	a := NewArXiv(NewHTTPClient(5*time.Second, 0), srv.URL, []string{"cs.AI", "cs.LG"}, 10)
	records, err := a.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	r := records[0]
	if r.ExternalID != "2405.01234" {
		t.Errorf("ExternalID = %q", r.ExternalID)
	}
	if r.Summary != "We study routing." || *r.Engagement != arxivBaseEngagement {
		t.Errorf("unexpected record: %+v", r)
	}
	if r.CategoryHint != models.CategoryAI || r.Channel != "cs.LG" {
		t.Errorf("category hint = %q, channel = %q", r.CategoryHint, r.Channel)
	}
}

type stubAdapter struct {
	source  models.Source
	records []models.RawRecord
	err     error
}

func (s stubAdapter) Source() models.Source { return s.source }

func (s stubAdapter) Fetch(ctx context.Context) ([]models.RawRecord, error) {
	return s.records, s.err
}

func TestFetchAllReportsGaps(t *testing.T) {
	f := NewFetcher(
		stubAdapter{source: models.SourceReddit, err: errors.New("timeout")},
		stubAdapter{source: models.SourceHackerNews, records: []models.RawRecord{{ExternalID: "1"}}},
		stubAdapter{source: models.SourceArXiv},
		stubAdapter{source: models.SourceDevTo, records: []models.RawRecord{{ExternalID: "2"}}, err: errors.New("tag failed")},
	)

	res := f.FetchAll(context.Background())
	if len(res.Records) != 2 || res.Records[0].ExternalID != "1" || res.Records[1].ExternalID != "2" {
		t.Errorf("records should keep adapter order: %+v", res.Records)
	}
	if len(res.Gaps) != 3 {
		t.Fatalf("expected 3 gaps, got %d", len(res.Gaps))
	}
	wantOrder := []models.Source{models.SourceArXiv, models.SourceDevTo, models.SourceReddit}
	for i, g := range res.Gaps {
		if g.Source != wantOrder[i] {
			t.Errorf("gap %d source = %s, want %s", i, g.Source, wantOrder[i])
		}
		if !errors.Is(g, ErrTransientIngestionGap) {
			t.Errorf("gap %d should wrap ErrTransientIngestionGap", i)
		}
	}
}

package sheets

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/pkg/errors"

	"github.com/vipowerus/schedule-bot/internal/schedule"
)

// Published reads sheets of a spreadsheet shared as "anyone with the link"
// through the visualization HTML export.
type Published struct {
	baseURL       string
	spreadsheetID string
	httpClient    *http.Client
}

// NewPublished ...
func NewPublished(config *Config) *Published {
	base := config.PublishedURL
	if base == "" {
		base = NewConfig().PublishedURL
	}
	return &Published{
		baseURL:       strings.TrimRight(base, "/"),
		spreadsheetID: config.SpreadsheetID,
		httpClient:    &http.Client{Timeout: 20 * time.Second},
	}
}

func (p *Published) sheetURL(sheet string) string {
	return fmt.Sprintf("%s/spreadsheets/d/%s/gviz/tq?tqx=out:html&sheet=%s",
		p.baseURL, url.PathEscape(p.spreadsheetID), url.QueryEscape(sheet))
}

// Records downloads sheet and keys its rows by the first table row.
func (p *Published) Records(ctx context.Context, sheet string) ([]schedule.Record, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.sheetURL(sheet), nil)
	if err != nil {
		return nil, errors.Wrap(err, "build request")
	}
	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrapf(err, "download sheet %q", sheet)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, errors.Errorf("download sheet %q: unexpected status %s", sheet, resp.Status)
	}

	values, err := Parse(resp)
	if err != nil {
		return nil, errors.Wrapf(err, "parse sheet %q", sheet)
	}
	return toRecords(values), nil
}

// Parse extracts the cells of the first table of an HTML page.
func Parse(resp *http.Response) ([][]interface{}, error) {
	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, err
	}
	table := doc.Find("table").First()
	if table.Length() == 0 {
		return nil, errors.New("no table in page")
	}

	var values [][]interface{}
	table.Find("tr").Each(func(i int, tr *goquery.Selection) {
		var row []interface{}
		tr.Find("th, td").Each(func(j int, cell *goquery.Selection) {
			row = append(row, strings.TrimSpace(cell.Text()))
		})
		values = append(values, row)
	})
	return values, nil
}

package collector

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"time"
)

var identPattern = regexp.MustCompile(`^[A-Za-z0-9_]+$`)

// RESTSource reads rows from a PostgREST endpoint such as a Supabase table,
// where each symbol's history lives in a table named after it.
type RESTSource struct {
	BaseURL string
	APIKey  string
	Table   string // defaults to the symbol
	Client  *http.Client
}

// NewRESTSource creates a REST source with optional proxy support.
func NewRESTSource(baseURL, apiKey, table, proxyURL string) *RESTSource {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	return &RESTSource{
		BaseURL: baseURL,
		APIKey:  apiKey,
		Table:   table,
		Client: &http.Client{
			Timeout:   30 * time.Second,
			Transport: transport,
		},
	}
}

func (s *RESTSource) Name() string { return "rest" }

func (s *RESTSource) FetchRows(symbol string) ([]Row, error) {
	table := s.Table
	if table == "" {
		table = symbol
	}
	if !identPattern.MatchString(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}

	endpoint := fmt.Sprintf("%s/rest/v1/%s?select=*", s.BaseURL, url.PathEscape(table))
	req, err := http.NewRequest("GET", endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if s.APIKey != "" {
		req.Header.Set("apikey", s.APIKey)
		req.Header.Set("Authorization", "Bearer "+s.APIKey)
	}
	resp, err := s.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch rows: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("fetch rows: status %d, body: %s", resp.StatusCode, string(body))
	}

	dec := json.NewDecoder(resp.Body)
	dec.UseNumber()
	var raw []map[string]any
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode rows: %w", err)
	}
	rows := make([]Row, len(raw))
	for i, r := range raw {
		row := make(Row, len(Columns))
		for _, col := range Columns {
			row[col] = toString(r[col])
		}
		rows[i] = row
	}
	return rows, nil
}

// toString renders a decoded JSON scalar as feed text. Missing values become "".
func toString(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case json.Number:
		return x.String()
	case float64:
		return formatPlain(x)
	case bool:
		return fmt.Sprint(x)
	default:
		return ""
	}
}

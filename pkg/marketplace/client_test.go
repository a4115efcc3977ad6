package marketplace

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"

	pkgerrors "github.com/angelmondragon/wb-sheets-sync/pkg/errors"
)

func TestListAdvertsRequest(t *testing.T) {
	const expectedURL = "http://adv.test/adv/v1/promotion/adverts?status=9"

	var captured *http.Request
	client := newTestClient(t, func(req *http.Request) (*http.Response, error) {
		captured = req
		return jsonResponse(http.StatusOK, `[{"advertId":123,"status":9,"type":8},{"advertId":"456","status":9}]`), nil
	})

	adverts, err := client.ListAdverts(context.Background(), 9)
	if err != nil {
		t.Fatalf("list adverts: %v", err)
	}
	if captured.Method != http.MethodPost {
		t.Fatalf("expected POST, got %s", captured.Method)
	}
	if captured.URL.String() != expectedURL {
		t.Fatalf("unexpected URL %q", captured.URL.String())
	}
	if captured.Header.Get("Authorization") != "test-token" {
		t.Fatalf("authorization header missing")
	}
	if len(adverts) != 2 || adverts[0].AdvertID != "123" || adverts[1].AdvertID != "456" {
		t.Fatalf("unexpected adverts %+v", adverts)
	}
}

func TestListAdvertsNoContent(t *testing.T) {
	client := newTestClient(t, func(req *http.Request) (*http.Response, error) {
		return jsonResponse(http.StatusNoContent, ""), nil
	})

	adverts, err := client.ListAdverts(context.Background(), 9)
	if err != nil {
		t.Fatalf("204 should not be an error, got %v", err)
	}
	if adverts == nil || len(adverts) != 0 {
		t.Fatalf("expected empty non-nil slice, got %#v", adverts)
	}
}

func TestFullStatsBatchesAllCampaigns(t *testing.T) {
	var body []map[string]any
	client := newTestClient(t, func(req *http.Request) (*http.Response, error) {
		if req.URL.String() != "http://adv.test/adv/v2/fullstats" {
			t.Fatalf("unexpected URL %q", req.URL.String())
		}
		raw, err := io.ReadAll(req.Body)
		if err != nil {
			t.Fatalf("read body: %v", err)
		}
		if err := json.Unmarshal(raw, &body); err != nil {
			t.Fatalf("unmarshal body: %v", err)
		}
		return jsonResponse(http.StatusOK, `[{"advertId":1,"views":100,"clicks":10,"atbs":2,"orders":1,"sum":12.5,"sum_price":999.99}]`), nil
	})

	stats, err := client.FullStats(context.Background(), []FullStatsRequest{
		{ID: "1", Dates: []string{"2024-01-05"}},
		{ID: "2", Dates: []string{"2024-01-05"}},
	})
	if err != nil {
		t.Fatalf("fullstats: %v", err)
	}
	if len(body) != 2 {
		t.Fatalf("expected 2 entries in batch, got %d", len(body))
	}
	if body[0]["id"] != float64(1) {
		t.Fatalf("numeric ids should be sent as numbers, got %#v", body[0]["id"])
	}
	dates, ok := body[1]["dates"].([]any)
	if !ok || len(dates) != 1 || dates[0] != "2024-01-05" {
		t.Fatalf("unexpected dates %#v", body[1]["dates"])
	}
	if len(stats) != 1 || stats[0].AdvertID != "1" || stats[0].SumPrice != 999.99 {
		t.Fatalf("unexpected stats %+v", stats)
	}
}

func TestFullStatsNoContentAndEmptyRequest(t *testing.T) {
	calls := 0
	client := newTestClient(t, func(req *http.Request) (*http.Response, error) {
		calls++
		return jsonResponse(http.StatusNoContent, ""), nil
	})

	stats, err := client.FullStats(context.Background(), nil)
	if err != nil || len(stats) != 0 {
		t.Fatalf("empty request should short-circuit, got %v %v", stats, err)
	}
	if calls != 0 {
		t.Fatalf("expected no upstream call for empty request")
	}

	stats, err = client.FullStats(context.Background(), []FullStatsRequest{{ID: "1", Dates: []string{"2024-01-05"}}})
	if err != nil {
		t.Fatalf("204 should not be an error, got %v", err)
	}
	if len(stats) != 0 {
		t.Fatalf("expected no stats, got %+v", stats)
	}
}

func TestDownloadReportClassifiesStatuses(t *testing.T) {
	tests := []struct {
		name   string
		status int
		code   pkgerrors.Code
	}{
		{name: "rate limited", status: http.StatusTooManyRequests, code: pkgerrors.CodeRateLimited},
		{name: "server error", status: http.StatusInternalServerError, code: pkgerrors.CodeUpstream},
		{name: "not found", status: http.StatusNotFound, code: pkgerrors.CodeUpstream},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, func(req *http.Request) (*http.Response, error) {
				return jsonResponse(tt.status, `{"detail":"nope"}`), nil
			})
			_, err := client.DownloadReport(context.Background(), "abc")
			typed := pkgerrors.As(err)
			if typed == nil || typed.Code() != tt.code {
				t.Fatalf("expected %s, got %v", tt.code, err)
			}
			details, ok := typed.Details().(pkgerrors.UpstreamDetails)
			if !ok {
				t.Fatalf("expected upstream details, got %T", typed.Details())
			}
			if details.Status != tt.status || details.Body != `{"detail":"nope"}` {
				t.Fatalf("unexpected details %+v", details)
			}
		})
	}
}

func TestDownloadReportNetworkError(t *testing.T) {
	client := newTestClient(t, func(req *http.Request) (*http.Response, error) {
		return nil, errors.New("connection refused")
	})
	_, err := client.DownloadReport(context.Background(), "abc")
	if !pkgerrors.HasCode(err, pkgerrors.CodeNetwork) {
		t.Fatalf("expected network error, got %v", err)
	}
}

func TestDownloadReportPath(t *testing.T) {
	var capturedURL string
	client := newTestClient(t, func(req *http.Request) (*http.Response, error) {
		capturedURL = req.URL.String()
		return &http.Response{StatusCode: http.StatusOK, Body: io.NopCloser(strings.NewReader("PK")), Header: http.Header{}}, nil
	})
	data, err := client.DownloadReport(context.Background(), "d1f0")
	if err != nil {
		t.Fatalf("download: %v", err)
	}
	if capturedURL != "http://reports.test/api/v2/nm-report/downloads/file/d1f0" {
		t.Fatalf("unexpected URL %q", capturedURL)
	}
	if string(data) != "PK" {
		t.Fatalf("unexpected payload %q", data)
	}
}

func TestListReportDownloads(t *testing.T) {
	client := newTestClient(t, func(req *http.Request) (*http.Response, error) {
		if req.Method != http.MethodGet || req.URL.Path != "/api/v2/nm-report/downloads" {
			t.Fatalf("unexpected request %s %s", req.Method, req.URL.Path)
		}
		return jsonResponse(http.StatusOK, `{"data":[{"id":"a-1","status":"SUCCESS"},{"id":"b-2","status":"SUCCESS"}]}`), nil
	})
	downloads, err := client.ListReportDownloads(context.Background())
	if err != nil {
		t.Fatalf("list downloads: %v", err)
	}
	if len(downloads) != 2 || downloads[1].ID != "b-2" {
		t.Fatalf("unexpected downloads %+v", downloads)
	}
}

func TestNewClientValidation(t *testing.T) {
	if _, err := NewClient("http://a", "http://b", " "); err == nil {
		t.Fatalf("expected token error")
	}
	if _, err := NewClient("", "http://b", "token"); err == nil {
		t.Fatalf("expected base url error")
	}
}

func TestIDNormalization(t *testing.T) {
	tests := []struct {
		raw  string
		want ID
	}{
		{raw: `123`, want: "123"},
		{raw: `"123"`, want: "123"},
		{raw: `"0123"`, want: "0123"},
		{raw: `-5`, want: "-5"},
		{raw: `" 77 "`, want: "77"},
		{raw: `1.23e2`, want: "123"},
		{raw: `null`, want: ""},
	}
	for _, tt := range tests {
		var id ID
		if err := json.Unmarshal([]byte(tt.raw), &id); err != nil {
			t.Fatalf("unmarshal %s: %v", tt.raw, err)
		}
		if id != tt.want {
			t.Fatalf("raw %s: expected %q got %q", tt.raw, tt.want, id)
		}
	}

	for raw, want := range map[string]string{"0123": "123", "+77": "77", " -5 ": "-5", "12.50": "12.5", "abc": "abc"} {
		if got := CanonicalNumber(raw); got != want {
			t.Fatalf("CanonicalNumber(%q): expected %q got %q", raw, want, got)
		}
	}

	out, err := json.Marshal([]ID{"42", "uuid-1", "007"})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(out) != `[42,"uuid-1",7]` {
		t.Fatalf("unexpected marshal output %s", out)
	}
}

func newTestClient(t *testing.T, fn roundTripFunc) *Client {
	t.Helper()
	client, err := NewClient("http://reports.test", "http://adv.test", "test-token", WithHTTPClient(&http.Client{Transport: fn}))
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return client
}

func jsonResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Status:     http.StatusText(status),
		Body:       io.NopCloser(strings.NewReader(body)),
		Header:     http.Header{"Content-Type": []string{"application/json"}},
	}
}

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

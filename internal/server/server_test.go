package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/compliscope/internal/analysis"
	"github.com/dshills/compliscope/internal/render"
	"github.com/dshills/compliscope/internal/schema"
)

type staticSource struct {
	records []schema.Record
	err     error
}

func (s *staticSource) Location() string { return "static" }

func (s *staticSource) Records(context.Context) ([]schema.Record, error) {
	return s.records, s.err
}

func table() []schema.Record {
	return []schema.Record{
		{Name: "HIPAA", Domain: "healthcare", AppliesTo: []string{"health", "us"}, Followed: true, Priority: schema.PriorityHigh},
		{Name: "DPDP Act", Domain: "all", AppliesTo: []string{"india"}, Priority: schema.PriorityHigh},
		{Name: "PCI-DSS", Domain: "finance", AppliesTo: []string{"payment"}, Priority: schema.PriorityHigh},
		{Name: "ISO 27001", Domain: "all", AppliesTo: []string{"all"}, Priority: schema.PriorityStandard},
	}
}

func newTestServer(t *testing.T, src *staticSource) (*httptest.Server, *prometheus.Registry) {
	t.Helper()
	a, err := analysis.New(analysis.Config{
		Source: src,
		Now:    func() time.Time { return time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC) },
	})
	require.NoError(t, err)

	reg := prometheus.NewRegistry()
	s := New(a, Options{Registry: reg, Render: render.Options{Owner: "grc"}})
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)
	return ts, reg
}

func post(t *testing.T, url, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(url, "application/json", strings.NewReader(body))
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func readBody(t *testing.T, resp *http.Response) []byte {
	t.Helper()
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return b
}

func TestHealthz(t *testing.T) {
	ts, _ := newTestServer(t, &staticSource{})
	resp, err := http.Get(ts.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestAnalyze(t *testing.T) {
	ts, _ := newTestServer(t, &staticSource{records: table()})
	resp := post(t, ts.URL+"/v1/analyze", `{"description": "Hospital app storing patient records in India"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))

	var res schema.Result
	require.NoError(t, json.Unmarshal(readBody(t, resp), &res))
	assert.Equal(t, "healthcare", res.Labels.Domain)
	assert.Equal(t, "India", res.Labels.Region)
	assert.NotEmpty(t, res.ID)

	var names []string
	for _, r := range res.Records {
		names = append(names, r.Name)
	}
	assert.Contains(t, names, "DPDP Act")
	assert.Contains(t, names, "ISO 27001")
	assert.NotContains(t, names, "PCI-DSS")
}

func TestAnalyze_NoMatchesReturnsEmptyList(t *testing.T) {
	ts, _ := newTestServer(t, &staticSource{records: []schema.Record{
		{Name: "PCI-DSS", Domain: "finance", AppliesTo: []string{"payment"}},
	}})
	resp := post(t, ts.URL+"/v1/analyze", `{"description": "a school portal"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := readBody(t, resp)
	assert.Contains(t, string(body), `"records": []`)
	assert.Contains(t, string(body), `"NO_MATCHES"`)
}

func TestAnalyze_Errors(t *testing.T) {
	tests := []struct {
		name   string
		src    *staticSource
		body   string
		status int
	}{
		{"empty description", &staticSource{records: table()}, `{"description": "  "}`, http.StatusUnprocessableEntity},
		{"bad json", &staticSource{records: table()}, `{"description":`, http.StatusBadRequest},
		{"unknown field", &staticSource{records: table()}, `{"text": "clinic"}`, http.StatusBadRequest},
		{"source down", &staticSource{err: errors.New("connection refused")}, `{"description": "clinic"}`, http.StatusBadGateway},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts, _ := newTestServer(t, tt.src)
			resp := post(t, ts.URL+"/v1/analyze", tt.body)
			assert.Equal(t, tt.status, resp.StatusCode)

			var e errorResponse
			require.NoError(t, json.Unmarshal(readBody(t, resp), &e))
			assert.NotEmpty(t, e.Error)
			assert.NotEmpty(t, e.RequestID)
		})
	}
}

func TestReport_FromDescription(t *testing.T) {
	ts, _ := newTestServer(t, &staticSource{records: table()})

	for _, format := range render.Formats {
		t.Run(format, func(t *testing.T) {
			resp := post(t, ts.URL+"/v1/reports/"+format, `{"description": "Hospital app storing patient records in India"}`)
			require.Equal(t, http.StatusOK, resp.StatusCode)
			assert.Equal(t, render.ContentType(format), resp.Header.Get("Content-Type"))
			assert.Contains(t, resp.Header.Get("Content-Disposition"), "compliance-report."+render.Extension(format))
			assert.NotEmpty(t, readBody(t, resp))
		})
	}
}

func TestReport_ActionPlanOwner(t *testing.T) {
	ts, _ := newTestServer(t, &staticSource{records: table()})
	resp := post(t, ts.URL+"/v1/reports/csv", `{"description": "Hospital app storing patient records in India"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := string(readBody(t, resp))
	assert.Contains(t, body, "DPDP Act,High,grc,2026-03-31")
	assert.NotContains(t, body, "HIPAA")
}

func TestReport_FromResult(t *testing.T) {
	ts, _ := newTestServer(t, &staticSource{records: table()})

	resp := post(t, ts.URL+"/v1/analyze", `{"description": "Hospital app storing patient records in India"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	result := readBody(t, resp)

	var body bytes.Buffer
	body.WriteString(`{"result": `)
	body.Write(result)
	body.WriteString(`}`)
	resp = post(t, ts.URL+"/v1/reports/md", body.String())
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(readBody(t, resp)), "# Compliance Report")
}

func TestReport_InvalidResult(t *testing.T) {
	ts, _ := newTestServer(t, &staticSource{records: table()})
	resp := post(t, ts.URL+"/v1/reports/md", `{"result": {"labels": {}, "summary": {"status": "MAYBE"}}}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestReport_UnknownFormat(t *testing.T) {
	ts, _ := newTestServer(t, &staticSource{records: table()})
	resp := post(t, ts.URL+"/v1/reports/xml", `{"description": "clinic"}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestMetricsEndpoint(t *testing.T) {
	ts, _ := newTestServer(t, &staticSource{records: table()})
	post(t, ts.URL+"/v1/analyze", `{"description": "Hospital app storing patient records in India"}`)
	post(t, ts.URL+"/v1/reports/pdf", `{"description": "Hospital app storing patient records in India"}`)

	resp, err := http.Get(ts.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	body := string(readBody(t, resp))
	assert.Contains(t, body, `compliscope_analyses_total{status="PARTIAL"} 2`)
	assert.Contains(t, body, `compliscope_reports_total{format="pdf"} 1`)
}

package frontend_test

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dupscan/internal/app"
	"dupscan/internal/frontend"
	"dupscan/internal/report"
)

func TestRenderIndexWithoutReport(t *testing.T) {
	rec := httptest.NewRecorder()
	err := frontend.NewRenderer().RenderIndex(rec, frontend.IndexData{Year: 2026})
	require.NoError(t, err)

	body := rec.Body.String()
	assert.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Contains(t, body, "Last scan finished never.")
	assert.NotContains(t, body, `id="report"`)
	assert.Contains(t, body, "2026")
}

func TestRenderIndexRunningScanAndReport(t *testing.T) {
	data := frontend.IndexData{
		Status: app.Status{Running: true, Root: "/data", StartedAt: time.Now(), Error: "previous failure"},
		Report: &report.Report{
			Root:    "/data",
			Summary: report.Summary{DuplicateSets: 1, ReclaimableBytes: 3 << 20},
			Groups: []report.Group{{
				Digest: "0123456789abcdef0123456789abcdef",
				Size:   3 << 20,
				Paths:  []string{"/data/<one>", "/data/two"},
			}},
		},
	}

	rec := httptest.NewRecorder()
	require.NoError(t, frontend.NewRenderer().RenderIndex(rec, data))

	body := rec.Body.String()
	assert.Contains(t, body, "Scanning <code>/data</code>")
	assert.Contains(t, body, "previous failure")
	assert.Contains(t, body, "3.0 MiB")
	assert.Contains(t, body, ">0123456789ab<")
	assert.Contains(t, body, "/data/&lt;one&gt;")
	assert.NotContains(t, body, "No duplicate files found.")
}

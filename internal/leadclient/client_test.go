package leadclient

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmanzer2/lead-gen/internal/leadform"
)

func newTestServer(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	c, err := New(srv.URL + "/")
	require.NoError(t, err)
	return c
}

func TestNewRequiresBaseURL(t *testing.T) {
	_, err := New("  ")
	assert.ErrorIs(t, err, ErrMissingBaseURL)
}

func TestBudgetRangesAndTimelines(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/api/budget-ranges":
			_, _ = w.Write([]byte(`{"data":[{"id":1,"range_label":"Under $5,000","max_amount":5000,"display_order":1}]}`))
		case "/api/project-timelines":
			_, _ = w.Write([]byte(`{"data":[{"id":4,"timeline_label":"6+ months","duration_weeks":null,"display_order":4}]}`))
		default:
			http.NotFound(w, r)
		}
	})

	ranges, err := c.BudgetRanges(context.Background())
	require.NoError(t, err)
	require.Len(t, ranges, 1)
	assert.Equal(t, "Under $5,000", ranges[0].RangeLabel)
	assert.Nil(t, ranges[0].MinAmount)
	require.NotNil(t, ranges[0].MaxAmount)
	assert.Equal(t, int64(5000), *ranges[0].MaxAmount)

	timelines, err := c.ProjectTimelines(context.Background())
	require.NoError(t, err)
	require.Len(t, timelines, 1)
	assert.Equal(t, int64(4), timelines[0].ID)
	assert.Nil(t, timelines[0].DurationWeeks)
}

func TestSubmitStripsHoneypot(t *testing.T) {
	var posted map[string]any
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&posted))
		_, _ = w.Write([]byte(`{"message":"Lead submitted successfully","data":{"id":9,"first_name":"Ada","contact_type":"Personal"}}`))
	})

	lead, err := c.Submit(context.Background(), leadform.Submission{FirstName: "Ada", Website: "spam.example"})
	require.NoError(t, err)
	require.NotNil(t, lead)
	assert.Equal(t, int64(9), lead.ID)
	_, hasWebsite := posted["website"]
	assert.False(t, hasWebsite)
	assert.Equal(t, "Ada", posted["first_name"])
}

func TestSubmitSurfacesValidationDetails(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"Invalid input.","details":[{"path":"zip_code","message":"Please enter a valid ZIP code (12345 or 12345-6789)"}]}`))
	})

	_, err := c.Submit(context.Background(), leadform.Submission{})
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusBadRequest, apiErr.Status)
	assert.Equal(t, "Invalid input.", apiErr.Message)
	assert.True(t, apiErr.Details.Has(leadform.PathZipCode))
}

func TestNonJSONErrorBody(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream timeout", http.StatusBadGateway)
	})

	_, err := c.BudgetRanges(context.Background())
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusBadGateway, apiErr.Status)
	assert.Equal(t, "upstream timeout", apiErr.Message)
}

package maps

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"testing"

	pkgerrors "github.com/angelmondragon/bloomcart-backend/pkg/errors"
)

func TestClientGeocodeRequest(t *testing.T) {
	const expectedURL = "http://maps.test/v1/places:searchText"
	respBody := `{"places":[{"id":"place_123","formattedAddress":"12 Le Loi, Ben Nghe, Quan 1","location":{"latitude":10.7725,"longitude":106.698}}]}`

	var capturedURL string
	var capturedHeaders http.Header
	var payload map[string]any

	rt := roundTripFunc(func(req *http.Request) (*http.Response, error) {
		capturedURL = req.URL.String()
		capturedHeaders = req.Header.Clone()

		bodyBytes, err := io.ReadAll(req.Body)
		if err != nil {
			t.Fatalf("read request body: %v", err)
		}
		if err := json.Unmarshal(bodyBytes, &payload); err != nil {
			t.Fatalf("unmarshal request body: %v", err)
		}
		return jsonResponse(http.StatusOK, respBody), nil
	})

	client, err := NewClient("test-key",
		WithBaseURL("http://maps.test/v1"),
		WithHTTPClient(&http.Client{Transport: rt}),
		WithRegion("VN", "vi"),
	)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	result, err := client.Geocode(context.Background(), GeocodeRequest{Address: "12 Le Loi", Ward: "Ben Nghe", District: "Quan 1"})
	if err != nil {
		t.Fatalf("geocode: %v", err)
	}
	if capturedURL != expectedURL {
		t.Fatalf("unexpected URL %q", capturedURL)
	}
	if capturedHeaders.Get("X-Goog-Api-Key") != "test-key" {
		t.Fatalf("api key header missing")
	}
	if capturedHeaders.Get("X-Goog-FieldMask") != searchTextFieldMask {
		t.Fatalf("unexpected field mask %q", capturedHeaders.Get("X-Goog-FieldMask"))
	}
	if payload["textQuery"] != "12 Le Loi, Ben Nghe, Quan 1" || payload["regionCode"] != "VN" {
		t.Fatalf("unexpected payload %v", payload)
	}
	if result.PlaceID != "place_123" || result.Location.Lat != 10.7725 || result.Location.Lng != 106.698 {
		t.Fatalf("unexpected result %+v", result)
	}
}

func TestGeocodeQuerySkipsDuplicateHints(t *testing.T) {
	req := GeocodeRequest{Address: "5 Nguyen Hue, Quan 1", District: "Quan 1"}
	if got := req.query(); got != "5 Nguyen Hue, Quan 1" {
		t.Fatalf("unexpected query %q", got)
	}
}

func TestClientGeocodeNoMatch(t *testing.T) {
	rt := roundTripFunc(func(*http.Request) (*http.Response, error) {
		return jsonResponse(http.StatusOK, `{"places":[{"id":"x"}]}`), nil
	})
	client, err := NewClient("k", WithHTTPClient(&http.Client{Transport: rt}))
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	_, err = client.Geocode(context.Background(), GeocodeRequest{Address: "nowhere"})
	if !pkgerrors.Is(err, pkgerrors.CodeNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestClientGeocodeUpstreamFailure(t *testing.T) {
	rt := roundTripFunc(func(*http.Request) (*http.Response, error) {
		return jsonResponse(http.StatusForbidden, `{"error":"denied"}`), nil
	})
	client, err := NewClient("k", WithHTTPClient(&http.Client{Transport: rt}))
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	_, err = client.Geocode(context.Background(), GeocodeRequest{Address: "12 Le Loi"})
	if !pkgerrors.Is(err, pkgerrors.CodeDependency) {
		t.Fatalf("expected dependency error, got %v", err)
	}
	if !strings.Contains(err.Error(), "status 403") {
		t.Fatalf("expected status in error, got %v", err)
	}
}

func TestClientValidation(t *testing.T) {
	if _, err := NewClient(" "); err == nil {
		t.Fatal("expected api key error")
	}

	client, _ := NewClient("k")
	if _, err := client.Geocode(context.Background(), GeocodeRequest{}); !pkgerrors.Is(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}

	var nilClient *Client
	if _, err := nilClient.Geocode(context.Background(), GeocodeRequest{Address: "x"}); !pkgerrors.Is(err, pkgerrors.CodeDependency) {
		t.Fatalf("expected dependency error for nil client, got %v", err)
	}
}

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

func jsonResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(strings.NewReader(body)),
		Header:     http.Header{"Content-Type": []string{"application/json"}},
	}
}

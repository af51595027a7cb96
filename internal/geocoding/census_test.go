package geocoding

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

// TestCensusProvider_Resolve round-trips a batch through a stubbed
// endpoint and checks the result CSV is joined back by row id.
func TestCensusProvider_Resolve(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("parse multipart form: %v", err)
		}
		if bench := r.FormValue("benchmark"); bench != "Public_AR_Census2020" {
			t.Errorf("unexpected benchmark %q", bench)
		}
		// Row 0 matches, row 1 does not.
		lines := []string{
			`0,"100 Main St, Fairfax, VA, 22030",Match,Exact,"100 MAIN ST, FAIRFAX, VA, 22030","-77.306465,38.846225",123456,L`,
			`1,"9 Ghost Rd, Nowhere, VA, 00000",No_Match`,
		}
		w.Write([]byte(strings.Join(lines, "\n")))
	}))
	defer srv.Close()

	p := NewCensusProvider(Options{RetryAttempts: 1})
	p.URL = srv.URL

	addrs := []Address{
		{Line1: "100 Main St", City: "Fairfax", State: "VA", Zip: "22030"},
		{Line1: "9 Ghost Rd", City: "Nowhere", State: "VA", Zip: "00000"},
	}
	out, err := p.Resolve(context.Background(), addrs)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if len(out) != 1 {
		t.Fatalf("expected 1 match, got %d", len(out))
	}
	res, ok := out[addrs[0].Key()]
	if !ok {
		t.Fatal("matched address missing from result")
	}
	if res.Latitude != 38.846225 || res.Longitude != -77.306465 {
		t.Errorf("wrong coordinates: %+v", res)
	}
}

// TestCensusProvider_ServerError verifies a persistent non-200 response
// surfaces as an error once retries are exhausted.
func TestCensusProvider_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	p := NewCensusProvider(Options{RetryAttempts: 1})
	p.URL = srv.URL

	_, err := p.Resolve(context.Background(), []Address{{Line1: "100 Main St", City: "Fairfax", State: "VA", Zip: "22030"}})
	if err == nil {
		t.Fatal("expected an error from the failing endpoint")
	}
}

func TestParseCensusResponse_SkipsMalformedRows(t *testing.T) {
	addrs := []Address{{Line1: "100 Main St", City: "Fairfax", State: "VA", Zip: "22030"}}
	body := strings.Join([]string{
		`not-a-number,"junk",Match,Exact,"x","-77.3,38.8",1,L`,
		`0,"100 Main St",Match,Exact,"x","not-coords",1,L`,
		`0,"100 Main St",Match,Exact,"x","-77.3,38.8",1,L`,
	}, "\n")

	out, err := parseCensusResponse(strings.NewReader(body), addrs)
	if err != nil {
		t.Fatalf("parseCensusResponse: %v", err)
	}
	if len(out) != 1 {
		t.Fatalf("expected 1 result, got %d", len(out))
	}
	if res := out[addrs[0].Key()]; res.Latitude != 38.8 || res.Longitude != -77.3 {
		t.Errorf("wrong coordinates: %+v", res)
	}
}

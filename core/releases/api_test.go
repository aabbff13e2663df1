package releases

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/jakkovanhunen/ucom-sub000/core/editor"
)

func mustVersion(t *testing.T, s string) editor.Version {
	t.Helper()
	v, err := editor.ParseVersion(s)
	if err != nil {
		t.Fatalf("ParseVersion(%q) error: %v", s, err)
	}
	return v
}

// pagedServer serves the given releases newest first through the paged
// listing envelope, honoring limit and offset query parameters.
func pagedServer(t *testing.T, all []Release) (*httptest.Server, *Client) {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
		offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

		end := offset + limit
		if end > len(all) {
			end = len(all)
		}
		results := []Release{}
		if offset < len(all) {
			results = all[offset:end]
		}
		json.NewEncoder(w).Encode(page{
			Offset:  offset,
			Limit:   limit,
			Total:   len(all),
			Results: results,
		})
	}))
	t.Cleanup(server.Close)

	client := NewClient(testCache(t, false))
	client.APIURL = server.URL
	return server, client
}

func releaseList(t *testing.T, versions ...string) []Release {
	t.Helper()
	releases := make([]Release, 0, len(versions))
	for _, s := range versions {
		releases = append(releases, Release{Version: mustVersion(t, s)})
	}
	return releases
}

func TestFetchAll(t *testing.T) {
	// Newest first, as the API orders them.
	all := make([]Release, 0, 30)
	for i := 29; i >= 0; i-- {
		all = append(all, Release{Version: mustVersion(t, fmt.Sprintf("2021.3.%df1", i))})
	}
	all[0].Recommended = true

	_, client := pagedServer(t, all)

	releases, err := client.FetchAll(nil)
	if err != nil {
		t.Fatalf("FetchAll() error: %v", err)
	}
	if len(releases.Releases) != 30 {
		t.Fatalf("FetchAll() returned %d releases, want 30", len(releases.Releases))
	}

	// Accumulated list is sorted oldest to newest.
	for i := 1; i < len(releases.Releases); i++ {
		if releases.Releases[i-1].Version.Compare(releases.Releases[i].Version) >= 0 {
			t.Fatalf("releases not ascending at index %d", i)
		}
	}

	want := mustVersion(t, "2021.3.29f1")
	if releases.SuggestedVersion == nil || *releases.SuggestedVersion != want {
		t.Errorf("SuggestedVersion = %v, want %v", releases.SuggestedVersion, want)
	}
	if releases.LastUpdated.IsZero() {
		t.Error("LastUpdated not set after a fetch")
	}
}

func TestUpdateStopsWhenPageHasNothingNew(t *testing.T) {
	all := releaseList(t,
		"2022.1.2f1", "2022.1.1f1", "2022.1.0f1",
		"2021.3.2f1", "2021.3.1f1", "2021.3.0f1",
		"2020.3.1f1", "2020.3.0f1",
	)

	var requests int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
		offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
		end := offset + limit
		if end > len(all) {
			end = len(all)
		}
		json.NewEncoder(w).Encode(page{Offset: offset, Limit: limit, Total: len(all), Results: all[offset:end]})
	}))
	t.Cleanup(server.Close)

	client := NewClient(testCache(t, false))
	client.APIURL = server.URL

	// Everything from the second page onward is already known, so the
	// fetch must stop after two pages of five.
	known := &Releases{Releases: releaseList(t,
		"2020.3.0f1", "2020.3.1f1", "2021.3.0f1", "2021.3.1f1", "2021.3.2f1",
	)}

	fetched, err := client.Update(known, nil)
	if err != nil {
		t.Fatalf("Update() error: %v", err)
	}
	if fetched != 3 {
		t.Errorf("Update() fetched %d releases, want 3", fetched)
	}
	if requests != 2 {
		t.Errorf("server saw %d requests, want 2 (stop once a page adds nothing)", requests)
	}
	if len(known.Releases) != 8 {
		t.Errorf("known set has %d releases, want 8", len(known.Releases))
	}
	if !known.HasVersion(mustVersion(t, "2022.1.2f1")) {
		t.Error("known set missing newly fetched 2022.1.2f1")
	}
}

func TestUpdateNothingNew(t *testing.T) {
	all := releaseList(t, "2021.3.1f1", "2021.3.0f1")
	_, client := pagedServer(t, all)

	known := &Releases{Releases: releaseList(t, "2021.3.0f1", "2021.3.1f1")}
	fetched, err := client.Update(known, nil)
	if err != nil {
		t.Fatalf("Update() error: %v", err)
	}
	if fetched != 0 {
		t.Errorf("Update() fetched %d releases, want 0", fetched)
	}
	if !known.LastUpdated.IsZero() {
		t.Error("LastUpdated changed although nothing was fetched")
	}
}

func TestReleasesLatest(t *testing.T) {
	releases := &Releases{Releases: releaseList(t, "2020.3.0f1", "2021.3.0f1", "2022.1.0f1")}

	latest, ok := releases.Latest(nil)
	if !ok || latest.Version.String() != "2022.1.0f1" {
		t.Errorf("Latest(nil) = %v, %v", latest.Version, ok)
	}

	latest, ok = releases.Latest(func(r Release) bool {
		return r.Version.MajorMinor() == "2021.3"
	})
	if !ok || latest.Version.String() != "2021.3.0f1" {
		t.Errorf("Latest(2021.3) = %v, %v", latest.Version, ok)
	}

	_, ok = releases.Latest(func(Release) bool { return false })
	if ok {
		t.Error("Latest() matched with an always-false filter")
	}
}

package releases

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/jakkovanhunen/ucom-sub000/core/editor"
	ucomerrors "github.com/jakkovanhunen/ucom-sub000/core/errors"
)

// DefaultAPIURL is the editor release listing endpoint.
const DefaultAPIURL = "https://services.api.unity.com/unity/editor/release/v1/releases"

// Release is one published editor version.
type Release struct {
	Version          editor.Version `json:"version"`
	ReleaseDate      time.Time      `json:"releaseDate"`
	Stream           string         `json:"stream"`
	ShortRevision    string         `json:"shortRevision"`
	Recommended      bool           `json:"recommended"`
	UnityHubDeepLink string         `json:"unityHubDeepLink"`
	ReleaseNotes     ReleaseNotes   `json:"releaseNotes"`
}

// ReleaseNotes points at the published notes document for a release.
type ReleaseNotes struct {
	URL  string `json:"url"`
	Type string `json:"type"`
}

// page is the API's envelope for one slice of the listing.
type page struct {
	Offset  int       `json:"offset"`
	Limit   int       `json:"limit"`
	Total   int       `json:"total"`
	Results []Release `json:"results"`
}

// Releases is the accumulated release list, sorted oldest to newest.
type Releases struct {
	LastUpdated      time.Time       `json:"lastUpdated"`
	SuggestedVersion *editor.Version `json:"suggestedVersion,omitempty"`
	Releases         []Release       `json:"releases"`
}

// HasVersion reports whether the list contains the version.
func (r *Releases) HasVersion(v editor.Version) bool {
	for i := range r.Releases {
		if r.Releases[i].Version == v {
			return true
		}
	}
	return false
}

// Latest returns the newest release matching the filter, or false when
// none matches. A nil filter matches everything.
func (r *Releases) Latest(match func(Release) bool) (Release, bool) {
	for i := len(r.Releases) - 1; i >= 0; i-- {
		if match == nil || match(r.Releases[i]) {
			return r.Releases[i], true
		}
	}
	return Release{}, false
}

func (r *Releases) sortAscending() {
	sort.SliceStable(r.Releases, func(i, j int) bool {
		return r.Releases[i].Version.Compare(r.Releases[j].Version) < 0
	})
}

// Client fetches release metadata through the HTTP cache.
type Client struct {
	Cache  *Cache
	APIURL string
}

// NewClient returns a client against the public release API.
func NewClient(cache *Cache) *Client {
	return &Client{Cache: cache, APIURL: DefaultAPIURL}
}

func (c *Client) fetchPage(limit, offset int) (*page, error) {
	url := fmt.Sprintf("%s?limit=%d&offset=%d&order=RELEASE_DATE_DESC", c.APIURL, limit, offset)
	body, err := c.Cache.Fetch(url)
	if err != nil {
		return nil, err
	}

	var p page
	if err := json.Unmarshal(body, &p); err != nil {
		return nil, ucomerrors.NewParse("releases", url, "invalid release data", err)
	}
	return &p, nil
}

// Update merges new releases from the API into the known set. The API
// lists newest first, so once a whole page contains nothing unknown the
// remaining pages are assumed known too and the fetch stops early. The
// progress callback may be nil.
func (c *Client) Update(known *Releases, progress func(fetched, total int)) (int, error) {
	// An empty set pulls big pages; an incremental update probes with
	// small ones.
	fetchAll := len(known.Releases) == 0
	limit := 5
	if fetchAll {
		limit = 25
	}

	fetched := 0
	offset := 0
	total := int(^uint(0) >> 1)

	for offset < total {
		p, err := c.fetchPage(limit, offset)
		if err != nil {
			return fetched, err
		}
		total = p.Total
		if len(p.Results) == 0 {
			break
		}

		newInPage := 0
		for _, release := range p.Results {
			if !fetchAll && known.HasVersion(release.Version) {
				continue
			}
			if release.Recommended {
				v := release.Version
				known.SuggestedVersion = &v
			}
			known.Releases = append(known.Releases, release)
			fetched++
			newInPage++
		}

		if newInPage == 0 {
			break
		}

		offset += limit
		if progress != nil {
			progress(fetched, total)
		}
	}

	if fetched > 0 {
		known.LastUpdated = time.Now()
		known.sortAscending()
	}
	return fetched, nil
}

// FetchAll downloads the full release listing.
func (c *Client) FetchAll(progress func(fetched, total int)) (*Releases, error) {
	releases := &Releases{}
	if _, err := c.Update(releases, progress); err != nil {
		return nil, err
	}
	return releases, nil
}

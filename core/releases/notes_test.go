package releases

import (
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"
)

const sampleNotesHTML = `<!DOCTYPE html>
<html><body>
<div class="release-notes">
  <p>Intro text outside any topic.</p>
  <ul><li>Stray entry before the first header is ignored.</li></ul>
  <h3>Known Issues in 2021.3.9f1</h3>
  <ul>
    <li>Asset Pipeline: Reimport triggers twice
        (<a href="#">1234567</a>)</li>
    <li>Scene/Game View: Gizmos flicker</li>
  </ul>
  <h3>Fixes</h3>
  <ul>
    <li>Editor: Fixed a crash on exit.</li>
  </ul>
  <h4>Fixes</h4>
  <ul>
    <li>Graphics: Fixed shader warnings.</li>
  </ul>
</div>
<div class="release-notes"><h3>Ignored second container</h3><ul><li>nope</li></ul></div>
</body></html>`

func TestParseReleaseNotes(t *testing.T) {
	topics, err := ParseReleaseNotes([]byte(sampleNotesHTML))
	if err != nil {
		t.Fatalf("ParseReleaseNotes() error: %v", err)
	}

	want := []NotesTopic{
		{
			Header: "Known Issues in 2021.3.9f1",
			Entries: []string{
				"Asset Pipeline: Reimport triggers twice",
				"Scene/Game View: Gizmos flicker",
			},
		},
		{
			Header: "Fixes",
			Entries: []string{
				"Editor: Fixed a crash on exit.",
				"Graphics: Fixed shader warnings.",
			},
		},
	}
	if !reflect.DeepEqual(topics, want) {
		t.Errorf("ParseReleaseNotes() =\n%#v\nwant\n%#v", topics, want)
	}
}

func TestParseReleaseNotesEmptyPage(t *testing.T) {
	topics, err := ParseReleaseNotes([]byte("<html><body><p>no notes here</p></body></html>"))
	if err != nil {
		t.Fatalf("ParseReleaseNotes() error: %v", err)
	}
	if len(topics) != 0 {
		t.Errorf("ParseReleaseNotes() found %d topics in a page without notes", len(topics))
	}
}

func TestNotesURL(t *testing.T) {
	tests := []struct {
		version string
		want    string
	}{
		{"2021.3.9f1", "https://unity.com/releases/editor/whats-new/2021.3.9#notes"},
		{"2021.3.9f2", "https://unity.com/releases/editor/whats-new/2021.3.9#notes"},
		{"2023.1.0a12", "https://unity.com/releases/editor/alpha/2023.1.0a12#notes"},
		{"2023.1.0b3", "https://unity.com/releases/editor/beta/2023.1.0b3#notes"},
		{"2021.3.9p1", "https://unity.com/releases/editor/whats-new/2021.3.9p1#notes"},
	}
	for _, tt := range tests {
		t.Run(tt.version, func(t *testing.T) {
			if got := NotesURL(mustVersion(t, tt.version)); got != tt.want {
				t.Errorf("NotesURL(%s) = %q, want %q", tt.version, got, tt.want)
			}
		})
	}
}

func TestFetchReleaseNotes(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(sampleNotesHTML))
	}))
	t.Cleanup(server.Close)

	client := NewClient(testCache(t, false))
	topics, err := client.FetchReleaseNotes(server.URL)
	if err != nil {
		t.Fatalf("FetchReleaseNotes() error: %v", err)
	}
	if len(topics) != 2 {
		t.Fatalf("FetchReleaseNotes() found %d topics, want 2", len(topics))
	}
	if topics[0].Header != "Known Issues in 2021.3.9f1" {
		t.Errorf("first topic header = %q", topics[0].Header)
	}
}

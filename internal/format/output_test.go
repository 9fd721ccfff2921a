package format

import (
	"bytes"
	"strings"
	"testing"
)

type sample struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Time  string `json:"time"`
}

func TestWrite_JSONAndYAMLUseJSONTags(t *testing.T) {
	t.Parallel()

	v := map[string]any{"data": []sample{{ID: "a1", Title: "Standup", Time: ""}}}

	var j bytes.Buffer
	if err := Write(&j, v, "json", false); err != nil {
		t.Fatalf("json: %v", err)
	}
	if got, want := j.String(), `{"data":[{"id":"a1","title":"Standup","time":""}]}`+"\n"; got != want {
		t.Fatalf("json: got %q want %q", got, want)
	}

	var y bytes.Buffer
	if err := Write(&y, v, "YAML", false); err != nil {
		t.Fatalf("yaml: %v", err)
	}
	for _, want := range []string{"data:", "- id: a1", "title: Standup", `time: ""`} {
		if !strings.Contains(y.String(), want) {
			t.Fatalf("yaml: expected %q in:\n%s", want, y.String())
		}
	}
}

func TestWrite_UnknownFormat(t *testing.T) {
	t.Parallel()

	if err := Write(&bytes.Buffer{}, 1, "edn", false); err == nil {
		t.Fatalf("expected error")
	}
	if Valid("xml") || !Valid("") || !Valid("yml") {
		t.Fatalf("Valid mismatch")
	}
}

package llm

import "testing"

func TestStripCodeFences(t *testing.T) {
	cases := map[string]string{
		"```json\n{\"a\": 1}\n```":   `{"a": 1}`,
		"```\n{\"a\": 1}\n```":       `{"a": 1}`,
		"  {\"a\": 1}  ":             `{"a": 1}`,
		"prefix ```json\n{}\n``` sx": `{}`,
	}
	for in, want := range cases {
		if got := StripCodeFences(in); got != want {
			t.Fatalf("StripCodeFences(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestExtractObject(t *testing.T) {
	obj, ok := ExtractObject("Sure! Here is the result: {\"answer\": \"42\"} hope that helps")
	if !ok || obj != `{"answer": "42"}` {
		t.Fatalf("got %q ok=%v", obj, ok)
	}

	if _, ok := ExtractObject("no json here"); ok {
		t.Fatal("expected no object")
	}
}

func TestExtractInto(t *testing.T) {
	var dest struct {
		Answer string `json:"answer"`
	}
	if !ExtractInto("```json\n{\"answer\": \"hi\"}\n```", &dest) {
		t.Fatal("expected successful extraction")
	}
	if dest.Answer != "hi" {
		t.Fatalf("unexpected value %q", dest.Answer)
	}

	if ExtractInto("{not valid json}", &dest) {
		t.Fatal("invalid json must report false")
	}
	if ExtractInto("plain text", &dest) {
		t.Fatal("missing object must report false")
	}
}

package modeltext

import "testing"

func TestTrimCodeFence(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"bare", `{"a":1}`, `{"a":1}`},
		{"fenced", "```json\n{\"a\":1}\n```", `{"a":1}`},
		{"fenced upper", "```JSON\n{\"a\":1}\n```", `{"a":1}`},
		{"fence no lang", "```\n{\"a\":1}\n```", `{"a":1}`},
		{"whitespace", "  \n{\"a\":1}\n ", `{"a":1}`},
		{"empty", "", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := TrimCodeFence(tc.in); got != tc.want {
				t.Fatalf("TrimCodeFence(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestExtractJSONFragmentIgnoresProse(t *testing.T) {
	raw := "Sure! Here is the analysis:\n```json\n{\"mood\":\"warm\"}\n```\nLet me know if you need more."
	if got := ExtractJSONFragment(raw); got != `{"mood":"warm"}` {
		t.Fatalf("unexpected fragment: %q", got)
	}
}

func TestExtractJSONFragmentArray(t *testing.T) {
	raw := "here you go [1,2,3] thanks"
	if got := ExtractJSONFragment(raw); got != "[1,2,3]" {
		t.Fatalf("unexpected fragment: %q", got)
	}
}

func TestParsePayload(t *testing.T) {
	type payload struct {
		Mood string `json:"mood"`
	}
	got, err := ParsePayload[payload]("```json\n{\"mood\":\"bold\"}\n```")
	if err != nil {
		t.Fatalf("ParsePayload returned error: %v", err)
	}
	if got.Mood != "bold" {
		t.Fatalf("Mood = %q, want bold", got.Mood)
	}

	if _, err := ParsePayload[payload]("not json at all"); err == nil {
		t.Fatal("expected error for non-JSON payload")
	}
	if _, err := ParsePayload[payload](""); err == nil {
		t.Fatal("expected error for empty payload")
	}
}

package render

import (
	"strings"
	"testing"
)

func TestParsePayload_Empty(t *testing.T) {
	for _, raw := range []string{"", "   ", "\n"} {
		p, err := ParsePayload(raw)
		if err != nil {
			t.Fatalf("ParsePayload(%q) error: %v", raw, err)
		}
		if !p.Empty() {
			t.Fatalf("ParsePayload(%q) expected empty payload", raw)
		}
	}
}

func TestParsePayload_TextAndBlocks(t *testing.T) {
	raw := `{"text":"deploy pending","blocks":[{"type":"section","text":{"type":"mrkdwn","text":"*Deploy*"}}]}`

	p, err := ParsePayload(raw)
	if err != nil {
		t.Fatalf("ParsePayload error: %v", err)
	}
	if p.Empty() {
		t.Fatal("expected non-empty payload")
	}
	if p.Text != "deploy pending" {
		t.Fatalf("unexpected text: %q", p.Text)
	}
	if len(p.Blocks.BlockSet) != 1 {
		t.Fatalf("expected 1 block, got %d", len(p.Blocks.BlockSet))
	}
	if opts := p.MsgOptions(); len(opts) != 2 {
		t.Fatalf("expected 2 msg options, got %d", len(opts))
	}
}

func TestParsePayload_MalformedJSON(t *testing.T) {
	if _, err := ParsePayload(`{"text": `); err == nil {
		t.Fatal("expected error for malformed payload")
	}
}

func TestDefaultMainPayload(t *testing.T) {
	p := DefaultMainPayload("octo/repo", "deploy", "https://github.com/octo/repo/actions/runs/42")
	if p.Empty() {
		t.Fatal("expected generated payload")
	}
	if !strings.Contains(p.Text, `"deploy"`) || !strings.Contains(p.Text, "octo/repo") {
		t.Fatalf("unexpected text: %q", p.Text)
	}
	if !strings.Contains(p.Text, "/actions/runs/42") {
		t.Fatalf("run link missing: %q", p.Text)
	}
}

package natsadapter

import (
	"testing"

	"github.com/samirrijal/perimap/internal/core/domain"
)

func TestDecodeInteraction_SessionFromSubject(t *testing.T) {
	in, err := DecodeInteraction("perimap.interactions.s1", []byte(`{"type":"map_click","coordinate":{"lat":1,"lng":2}}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if in.SessionID != "s1" {
		t.Errorf("expected session s1, got %q", in.SessionID)
	}
	if in.Type != domain.InteractionMapClick || in.Coordinate == nil || in.Coordinate.Lng != 2 {
		t.Errorf("unexpected interaction %+v", in)
	}
}

func TestDecodeInteraction_PayloadWins(t *testing.T) {
	in, err := DecodeInteraction("perimap.interactions.s1", []byte(`{"session_id":"s2","type":"clear_markers"}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if in.SessionID != "s2" {
		t.Errorf("expected payload session s2, got %q", in.SessionID)
	}
}

func TestDecodeInteraction_Shape(t *testing.T) {
	data := []byte(`{"type":"shape_complete","shape":{"kind":"circle","center":{"lat":1,"lng":1},"radius":25}}`)
	in, err := DecodeInteraction("perimap.interactions.s1", data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if in.Shape == nil || in.Shape.Kind != domain.ShapeCircle || in.Shape.Radius != 25 {
		t.Errorf("unexpected shape %+v", in.Shape)
	}
}

func TestDecodeInteraction_Malformed(t *testing.T) {
	if _, err := DecodeInteraction("perimap.interactions.s1", []byte(`{`)); err == nil {
		t.Error("expected error")
	}
}

func TestDecodeInteraction_IncompleteCoordinate(t *testing.T) {
	for _, body := range []string{
		`{"type":"map_click","coordinate":{}}`,
		`{"type":"marker_click","coordinate":{"latitude":1,"longitude":2}}`,
		`{"type":"shape_complete","shape":{"kind":"polygon","path":[{"lat":0,"lng":0},{"lng":1},{"lat":1,"lng":1}]}}`,
	} {
		if _, err := DecodeInteraction("perimap.interactions.s1", []byte(body)); err == nil {
			t.Errorf("%s: expected error", body)
		}
	}
}

func TestSubjects(t *testing.T) {
	if SessionSubject("abc") != "perimap.session.abc" {
		t.Errorf("unexpected session subject %s", SessionSubject("abc"))
	}
	if InteractionSubjectFor("abc") != "perimap.interactions.abc" {
		t.Errorf("unexpected interaction subject %s", InteractionSubjectFor("abc"))
	}
}

func TestParseReply(t *testing.T) {
	if err := parseReply([]byte(`{"ok":true}`)); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	err := parseReply([]byte(`{"ok":false,"error":"session not found"}`))
	if err == nil || err.Error() != "session not found" {
		t.Errorf("expected session not found, got %v", err)
	}
	if err := parseReply([]byte(`nope`)); err == nil {
		t.Error("expected malformed reply error")
	}
}

package ingest

import (
	"io"
	"strings"
	"testing"
)

func drain(t *testing.T, src *JSONSource) []string {
	t.Helper()
	var out []string
	for {
		raw, err := src.Next()
		if err == io.EOF {
			return out
		}
		if err != nil {
			t.Fatalf("Next() err=%v", err)
		}
		out = append(out, string(raw))
	}
}

func TestJSONSource_WrappedObject(t *testing.T) {
	t.Parallel()

	src := NewJSONSource(strings.NewReader(`{"orders":[{"a":1},{"b":2}]}`))
	got := drain(t, src)
	if len(got) != 2 || got[0] != `{"a":1}` || got[1] != `{"b":2}` {
		t.Fatalf("records=%v", got)
	}
}

func TestJSONSource_BareArray(t *testing.T) {
	t.Parallel()

	src := NewJSONSource(strings.NewReader(`[{"a":1},{"b":2},{"c":3}]`))
	if got := drain(t, src); len(got) != 3 {
		t.Fatalf("records=%v", got)
	}
}

func TestJSONSource_SkipsOtherKeys(t *testing.T) {
	t.Parallel()

	src := NewJSONSource(strings.NewReader(`{"meta":{"source":"import"},"count":2,"orders":[{"a":1},{"b":2}]}`))
	if got := drain(t, src); len(got) != 2 {
		t.Fatalf("records=%v", got)
	}
}

func TestJSONSource_EmptyArray(t *testing.T) {
	t.Parallel()

	src := NewJSONSource(strings.NewReader(`{"orders":[]}`))
	if _, err := src.Next(); err != io.EOF {
		t.Fatalf("Next() err=%v, want io.EOF", err)
	}
}

func TestJSONSource_Malformed(t *testing.T) {
	t.Parallel()

	cases := []string{
		`"just a string"`,
		`{"orders":{"a":1}}`,
		`{"count":2}`,
		`{"orders":[{"a":1},`,
	}
	for _, body := range cases {
		src := NewJSONSource(strings.NewReader(body))
		var err error
		for err == nil {
			_, err = src.Next()
		}
		if err == io.EOF {
			t.Fatalf("input %q: stream ended cleanly, want error", body)
		}
	}
}

package fetch

import (
	"errors"
	"testing"
)

func TestParseBatchDecodesArray(t *testing.T) {
	body := []byte(`[
		{"_id":"c1","timestamp":1700000000000,"text":"hello","post":"https://social.example/p/1"},
		{"_id":"c2","timestamp":1700000001000,"post":"https://social.example/p/1","media":{"kind":"attachment","ext":"mp4"}}
	]`)

	items, err := parseBatch(body)
	if err != nil {
		t.Fatalf("parseBatch: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(items))
	}
	if items[0].ID != "c1" || items[0].Text != "hello" {
		t.Fatalf("first item = %#v", items[0])
	}
	if items[1].Media == nil || items[1].Media.Ext != "mp4" {
		t.Fatalf("second item media = %#v", items[1].Media)
	}
}

func TestParseBatchAcceptsEmptyArray(t *testing.T) {
	items, err := parseBatch([]byte("  []  "))
	if err != nil {
		t.Fatalf("parseBatch: %v", err)
	}
	if items == nil || len(items) != 0 {
		t.Fatalf("expected empty non-nil slice, got %#v", items)
	}
}

func TestParseBatchRejectsNonArray(t *testing.T) {
	cases := map[string]string{
		"object": `{"_id":"c1"}`,
		"null":   `null`,
		"string": `"oops"`,
		"number": `42`,
		"empty":  ``,
	}

	for name, body := range cases {
		if _, err := parseBatch([]byte(body)); !errors.Is(err, ErrNotArray) {
			t.Fatalf("%s: expected ErrNotArray, got %v", name, err)
		}
	}
}

func TestParseBatchRejectsMalformedJSON(t *testing.T) {
	if _, err := parseBatch([]byte(`[{"_id":`)); err == nil {
		t.Fatalf("expected decode error")
	}
}

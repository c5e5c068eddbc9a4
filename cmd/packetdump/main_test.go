package main

import (
	"bytes"
	"strings"
	"testing"
)

func TestDumpJSON(t *testing.T) {
	var out bytes.Buffer
	err := run(strings.NewReader("101122334455667788\n"), &out, options{
		phase: "play", dir: "serverbound", version: "754", format: "json",
	})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), `"name":"KeepAlive"`) || !strings.Contains(out.String(), `"ID":1234605616436508552`) {
		t.Fatalf("unexpected dump %s", out.String())
	}
}

func TestDumpFramedHandshake(t *testing.T) {
	var out bytes.Buffer
	err := run(nil, &out, options{
		phase: "handshake", dir: "serverbound", version: "1.16.5", format: "json", framed: true,
		args: []string{"10 00f205096c6f63616c686f737463dd01"},
	})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), `"variant":"Status"`) {
		t.Fatalf("expected the next state variant, got %s", out.String())
	}
}

func TestListRegistry(t *testing.T) {
	var out bytes.Buffer
	if err := run(nil, &out, options{phase: "status", dir: "clientbound", version: "754", list: true}); err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"0x00", "Response", "0x01", "Pong", "Payload:i64"} {
		if !strings.Contains(out.String(), want) {
			t.Fatalf("expected %q in listing:\n%s", want, out.String())
		}
	}
}

func TestRunErrors(t *testing.T) {
	tests := []options{
		{phase: "lobby", dir: "serverbound", version: "754"},
		{phase: "play", dir: "sideways", version: "754"},
		{phase: "play", dir: "serverbound", version: "beta"},
		{phase: "play", dir: "serverbound", version: "754", format: "xml", args: []string{"00"}},
		{phase: "play", dir: "serverbound", version: "754", format: "json", args: []string{"zz"}},
		{phase: "play", dir: "serverbound", version: "754", format: "json", args: []string{"e707"}},
	}
	for _, opts := range tests {
		if err := run(strings.NewReader(""), &bytes.Buffer{}, opts); err == nil {
			t.Errorf("%+v: expected error", opts)
		}
	}
}

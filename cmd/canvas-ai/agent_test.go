package main

import (
	"encoding/json"
	"testing"
)

func TestCapabilityMatrixSubmitGuarded(t *testing.T) {
	var submit *commandCapability
	names := map[string]bool{}
	for _, c := range capabilityMatrix() {
		c := c
		names[c.Name] = true
		if c.Name == "submit" {
			submit = &c
		}
	}

	for _, want := range []string{"plan", "execute", "review", "do", "submit", "runs.show", "runs.tail"} {
		if !names[want] {
			t.Errorf("matrix missing %q", want)
		}
	}
	if submit == nil {
		t.Fatal("no submit entry")
	}
	if !submit.ConfirmationRequired {
		t.Error("submit must require confirmation")
	}
	if submit.Risk != "high" {
		t.Errorf("got submit risk %q, want \"high\"", submit.Risk)
	}
}

func TestCapabilityMarshalKeyOrder(t *testing.T) {
	data, err := json.Marshal(commandCapability{
		Name: "plan", Risk: "low", Permissions: []string{"canvas:read"},
	})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	want := `{"confirmation_required":false,"name":"plan","permissions":["canvas:read"],"risk":"low"}`
	if string(data) != want {
		t.Errorf("got %s\nwant %s", data, want)
	}
}

package http

import "testing"

func TestRelayEvent(t *testing.T) {
	tests := []struct {
		name string
		data string
		want bool
	}{
		{"own event", `{"type":"marker_added","origin":"conn-1"}`, false},
		{"other client", `{"type":"marker_added","origin":"conn-2"}`, true},
		{"rest or graphql", `{"type":"marker_added"}`, true},
		{"undecodable", `{`, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := relayEvent("conn-1", []byte(tt.data)); got != tt.want {
				t.Errorf("relayEvent = %v, want %v", got, tt.want)
			}
		})
	}
}

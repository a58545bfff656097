package handler

import (
	"encoding/json"
	"testing"
)

func TestMediaID_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    mediaID
		wantErr bool
	}{
		{name: "string", in: `"603"`, want: "603"},
		{name: "number", in: `603`, want: "603"},
		{name: "large number", in: `1399000000001`, want: "1399000000001"},
		{name: "null", in: `null`, want: ""},
		{name: "bool", in: `true`, wantErr: true},
		{name: "object", in: `{"id":603}`, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got struct {
				ID mediaID `json:"mediaId"`
			}
			err := json.Unmarshal([]byte(`{"mediaId":`+tt.in+`}`), &got)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected an error, got %q", got.ID)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got.ID != tt.want {
				t.Fatalf("expected %q, got %q", tt.want, got.ID)
			}
		})
	}
}

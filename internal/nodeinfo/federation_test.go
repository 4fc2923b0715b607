package nodeinfo

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestParseFederation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		data    string
		want    *FederationLists
		wantErr error
	}{
		{
			name: "newer generation with peer objects",
			data: `{"federated_instances": {
				"linked": [{"id": 1, "domain": "b.example"}, {"id": 2, "domain": "c.example"}],
				"allowed": [],
				"blocked": [{"id": 3, "domain": "spam.example"}]
			}}`,
			want: &FederationLists{
				Linked:  []string{"b.example", "c.example"},
				Blocked: []string{"spam.example"},
			},
		},
		{
			name: "older generation with bare strings",
			data: `{"federated_instances": {
				"linked": ["b.example"],
				"allowed": ["b.example"],
				"blocked": null
			}}`,
			want: &FederationLists{
				Linked:  []string{"b.example"},
				Allowed: []string{"b.example"},
			},
		},
		{
			name: "federation disabled reports null",
			data: `{"federated_instances": null}`,
			want: &FederationLists{},
		},
		{
			name: "peer objects without domains are dropped",
			data: `{"federated_instances": {
				"linked": [{"id": 1}, {"id": 2, "domain": "b.example"}]
			}}`,
			want: &FederationLists{
				Linked: []string{"b.example"},
			},
		},
		{
			name:    "not JSON",
			data:    "502 Bad Gateway",
			wantErr: ErrUnknownSchema,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := ParseFederation([]byte(tt.data))
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("federation lists mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

package services

import (
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIdentityResolver_Precedence(t *testing.T) {
	r := IdentityResolver{UseRemoteAddr: true}
	header := http.Header{}
	header.Set("X-Forwarded-For", "203.0.113.9")

	tests := []struct {
		name    string
		signals Signals
		want    Identity
		ok      bool
	}{
		{
			name: "email wins over everything",
			signals: Signals{
				VerifiedEmail: " Reader@Example.com ",
				Header:        header,
				RemoteAddr:    "192.0.2.1:1000",
				ClientToken:   "tokA",
			},
			want: Identity{Kind: IdentityEmail, Value: "reader@example.com"},
			ok:   true,
		},
		{
			name:    "forwarded address wins over token",
			signals: Signals{Header: header, ClientToken: "tokA"},
			want:    Identity{Kind: IdentityNetwork, Value: "203.0.113.9"},
			ok:      true,
		},
		{
			name:    "direct address when no proxy headers",
			signals: Signals{RemoteAddr: "192.0.2.1:1000", ClientToken: "tokA"},
			want:    Identity{Kind: IdentityNetwork, Value: "192.0.2.1"},
			ok:      true,
		},
		{
			name:    "token when address unknown",
			signals: Signals{ClientToken: "  tokA "},
			want:    Identity{Kind: IdentityClient, Value: "tokA"},
			ok:      true,
		},
		{
			name:    "oversized token is ignored",
			signals: Signals{ClientToken: strings.Repeat("x", MaxClientTokenLen+1)},
			ok:      false,
		},
		{
			name:    "oversized email falls through to token",
			signals: Signals{VerifiedEmail: strings.Repeat("a", MaxEmailLen) + "@example.com", ClientToken: "tokA"},
			want:    Identity{Kind: IdentityClient, Value: "tokA"},
			ok:      true,
		},
		{
			name:    "nothing usable",
			signals: Signals{ClientToken: "   "},
			ok:      false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := r.Resolve(tt.signals)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestIdentityResolver_IgnoresRemoteAddrWhenDisabled(t *testing.T) {
	r := IdentityResolver{UseRemoteAddr: false}
	got, ok := r.Resolve(Signals{RemoteAddr: "192.0.2.1:1000", ClientToken: "tokA"})
	assert.True(t, ok)
	assert.Equal(t, Identity{Kind: IdentityClient, Value: "tokA"}, got)
}

func TestIdentity_String(t *testing.T) {
	assert.Equal(t, "none", Identity{}.String())
	assert.Equal(t, "client:tokA", Identity{Kind: IdentityClient, Value: "tokA"}.String())
}

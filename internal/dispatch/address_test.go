package dispatch

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNormalizeAddress(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{name: "separators stripped", raw: "123-456-7890", want: "1234567890@s.whatsapp.net"},
		{name: "plus and spaces", raw: " +62 812 3456 ", want: "628123456@s.whatsapp.net"},
		{name: "already addressed", raw: "1234567890@c.us", want: "1234567890@c.us"},
		{name: "group address kept", raw: "120363-99@g.us", want: "120363-99@g.us"},
		{name: "empty", raw: "", want: "@s.whatsapp.net"},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			require.Equal(t, tt.want, NormalizeAddress(tt.raw, "s.whatsapp.net"))
		})
	}
}

func TestParseRecipients(t *testing.T) {
	require.Equal(t, []string{"1", "2", "3"}, ParseRecipients("1, 2 ,3"))
	require.Equal(t, []string{"12345"}, ParseRecipients(" 12345 "))
	require.Equal(t, []string{""}, ParseRecipients(""))
	require.Equal(t, []string{"1", ""}, ParseRecipients("1,"))
}

package qr

import (
	"bytes"
	"encoding/base64"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRenderer_Render(t *testing.T) {
	req := require.New(t)
	out, err := NewRenderer().Render("2@pairing-ref,key,adv")
	req.NoError(err)
	req.True(strings.HasPrefix(out, dataURLPrefix))

	png, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(out, dataURLPrefix))
	req.NoError(err)
	req.True(bytes.HasPrefix(png, []byte("\x89PNG")))
}

func TestRenderer_EmptyCode(t *testing.T) {
	_, err := NewRenderer().Render("")
	require.Error(t, err)
}

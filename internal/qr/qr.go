// Package qr renders pairing codes as PNG data URLs the web UI can put
// straight into an <img> tag.
package qr

import (
	"encoding/base64"
	"errors"

	qrcode "github.com/skip2/go-qrcode"
)

const dataURLPrefix = "data:image/png;base64,"

type Renderer struct {
	Size  int
	Level qrcode.RecoveryLevel
}

func NewRenderer() Renderer {
	return Renderer{Size: 256, Level: qrcode.Medium}
}

func (r Renderer) Render(code string) (string, error) {
	if code == "" {
		return "", errors.New("empty pairing code")
	}
	png, err := qrcode.Encode(code, r.Level, r.Size)
	if err != nil {
		return "", err
	}
	return dataURLPrefix + base64.StdEncoding.EncodeToString(png), nil
}

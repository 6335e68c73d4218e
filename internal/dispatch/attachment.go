package dispatch

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"whatsapp-relay/internal/transport"

	"github.com/gabriel-vasile/mimetype"
)

// Attachment is a file uploaded for one send request. The engine owns it once
// handed over and removes it when the request finishes, whatever the outcome.
type Attachment struct {
	Path     string
	FileName string
}

func (a *Attachment) load() (*transport.Media, error) {
	data, err := os.ReadFile(a.Path)
	if err != nil {
		return nil, fmt.Errorf("read attachment %q: %w", a.FileName, err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("attachment %q is empty", a.FileName)
	}
	return &transport.Media{
		Data:     data,
		MimeType: mimetype.Detect(data).String(),
		FileName: a.FileName,
	}, nil
}

// Release deletes the uploaded file. A file that is already gone is not an error.
func (a *Attachment) Release() error {
	if a == nil || a.Path == "" {
		return nil
	}
	if err := os.Remove(a.Path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

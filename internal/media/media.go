// Package media is the profile-photo collaborator boundary. The core
// validates a crop box against image dimensions it is handed; fetching,
// decoding, and cropping the actual image happens behind the Processor
// interface.
package media

import "context"

// CropBox is a rectangle in image coordinates, (0,0) top-left. The end
// coordinates are exclusive.
type CropBox struct {
	XStart int `json:"x_start"`
	YStart int `json:"y_start"`
	XEnd   int `json:"x_end"`
	YEnd   int `json:"y_end"`
}

// WithinBounds reports whether the box fits inside a width x height image
// with start strictly before end on both axes.
func (b CropBox) WithinBounds(width, height int) bool {
	if b.XStart < 0 || b.YStart < 0 || b.XEnd > width || b.YEnd > height {
		return false
	}
	return b.XStart < b.XEnd && b.YStart < b.YEnd
}

// Processor crops a remote image for a user and returns the URL the
// cropped result is served from.
type Processor interface {
	Process(ctx context.Context, userID int64, sourceURL string, crop CropBox) (string, error)
}

// PassThrough is the default Processor: it performs no cropping and hands
// back the source URL unchanged.
type PassThrough struct{}

func (PassThrough) Process(_ context.Context, _ int64, sourceURL string, _ CropBox) (string, error) {
	return sourceURL, nil
}

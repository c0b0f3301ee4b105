package interfaces

import "context"

// ImageLocation pairs a storage location URI with the object size recorded
// for it. The size feeds the backends' pre-flight verification; a value of
// SizeUnknown (or any negative value) means no size is on record.
type ImageLocation struct {
	URI  string `json:"uri"`
	Size int64  `json:"size"`
}

// ImageDescriptor is the metadata the index keeps per image. An image's
// data may be split across several locations; concatenating their streams
// in order reproduces the image.
type ImageDescriptor struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Checksum string `json:"checksum,omitempty"`

	// Size is the total image size in bytes, zero when unknown.
	Size int64 `json:"size"`

	Locations []ImageLocation `json:"locations"`
}

// TotalSize returns Size if recorded, otherwise the sum of the per-location
// sizes. A negative result means the total is unknown.
func (d *ImageDescriptor) TotalSize() int64 {
	if d.Size > 0 {
		return d.Size
	}
	var sum int64
	for _, loc := range d.Locations {
		if loc.Size < 0 {
			return SizeUnknown
		}
		sum += loc.Size
	}
	return sum
}

// ImageIndex looks up image metadata by ID. Implementations include the
// HTTP metadata service client and the static manifest index; unknown IDs
// are reported as ErrImageNotFound.
type ImageIndex interface {
	ImageMetadata(ctx context.Context, imageID string) (*ImageDescriptor, error)
}

package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/halstead/image-delivery-backend/interfaces"
)

// StaticIndex implements interfaces.ImageIndex from an in-memory table,
// typically loaded from a JSON manifest file at startup. The table never
// changes after construction, so lookups need no locking.
type StaticIndex struct {
	images map[string]*interfaces.ImageDescriptor
}

type manifest struct {
	Images []interfaces.ImageDescriptor `json:"images"`
}

// LoadStaticIndex reads a JSON manifest file and builds an index from its
// "images" array. Entries must carry unique, non-empty IDs.
func LoadStaticIndex(path string) (*StaticIndex, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading image manifest: %w", err)
	}

	var m manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parsing image manifest %s: %w", path, err)
	}

	idx, err := NewStaticIndex(m.Images)
	if err != nil {
		return nil, fmt.Errorf("image manifest %s: %w", path, err)
	}
	return idx, nil
}

// NewStaticIndex builds an index directly from descriptors.
func NewStaticIndex(images []interfaces.ImageDescriptor) (*StaticIndex, error) {
	idx := &StaticIndex{images: make(map[string]*interfaces.ImageDescriptor, len(images))}
	for i := range images {
		img := &images[i]
		if img.ID == "" {
			return nil, fmt.Errorf("image entry %d has no id", i)
		}
		if _, dup := idx.images[img.ID]; dup {
			return nil, fmt.Errorf("duplicate image id %s", img.ID)
		}
		idx.images[img.ID] = img
	}
	return idx, nil
}

// ImageMetadata returns a copy of the descriptor for imageID, or
// interfaces.ErrImageNotFound.
func (idx *StaticIndex) ImageMetadata(ctx context.Context, imageID string) (*interfaces.ImageDescriptor, error) {
	desc, ok := idx.images[imageID]
	if !ok {
		return nil, interfaces.ErrImageNotFound
	}

	// Hand out a copy so callers cannot mutate the index.
	out := *desc
	out.Locations = append([]interfaces.ImageLocation(nil), desc.Locations...)
	return &out, nil
}

// Len reports the number of indexed images, for startup logging.
func (idx *StaticIndex) Len() int {
	return len(idx.images)
}

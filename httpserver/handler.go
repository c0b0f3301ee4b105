package httpserver

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/halstead/image-delivery-backend/interfaces"
	"github.com/halstead/image-delivery-backend/metrics"
)

// Header constants used in image responses.
const (
	// ImageIDHeader carries the ID of the served image.
	ImageIDHeader = "X-Image-Meta-Id"

	// ImageNameHeader carries the human-readable image name.
	ImageNameHeader = "X-Image-Meta-Name"

	// ImageChecksumHeader carries the recorded image checksum, when known.
	ImageChecksumHeader = "X-Image-Meta-Checksum"

	// ImageSizeHeader carries the total image size in bytes, when known.
	ImageSizeHeader = "X-Image-Meta-Size"
)

// Handler processes HTTP requests for the image delivery service. It
// resolves image IDs through the metadata index and relays image data
// from the storage backends chunk by chunk.
type Handler struct {
	index     interfaces.ImageIndex
	retriever interfaces.Retriever
	log       *slog.Logger
}

// NewHandler creates a new HTTP request handler with the specified dependencies.
//
// Parameters:
//   - index: Image metadata index resolving IDs to storage locations
//   - retriever: Storage backend registry serving location URIs
//   - log: Structured logger for operational insights
//
// Returns a configured Handler instance.
func NewHandler(index interfaces.ImageIndex, retriever interfaces.Retriever, log *slog.Logger) *Handler {
	return &Handler{
		index:     index,
		retriever: retriever,
		log:       log,
	}
}

// HandleImageData streams an image's raw data to the client.
//
// URL format: GET /v1/images/{image_id}
//
// The image's locations are streamed back to back in the order the index
// lists them, as application/octet-stream. Content-Length is set when the
// total size is on record, so clients can detect truncated transfers.
//
// Deterministic failures surface as an error status: 404 when the ID is
// unknown or the image has no data, 502 when the stored metadata cannot
// be served (unregistered scheme, malformed location, size mismatch), 500
// for environmental failures. A failure after streaming has begun can
// only terminate the connection early; the status is already on the wire.
func (h *Handler) HandleImageData(w http.ResponseWriter, r *http.Request) {
	imageID := r.PathValue("image_id")
	if imageID == "" {
		http.Error(w, "Missing image ID in URL", http.StatusBadRequest)
		return
	}

	log := h.log.With(
		slog.String("imageId", imageID),
		slog.String("requestId", uuid.New().String()))

	desc, err := h.index.ImageMetadata(r.Context(), imageID)
	if err != nil {
		h.metadataFailed(w, log, imageID, err)
		return
	}

	if len(desc.Locations) == 0 {
		log.Info("Image has no data to serve")
		metrics.ImageRequestsTotal.WithLabelValues("404").Inc()
		http.Error(w, fmt.Sprintf("Image %s has no data", imageID), http.StatusNotFound)
		return
	}

	// Open the first location before sending headers, so failures the
	// backends detect up front still produce a proper error status.
	first, err := h.openLocation(r, desc.Locations[0])
	if err != nil {
		h.retrievalFailed(w, log, desc.Locations[0].URI, err)
		return
	}

	writeImageHeaders(w, desc)
	w.WriteHeader(http.StatusOK)
	metrics.ImageRequestsTotal.WithLabelValues("200").Inc()

	if !h.relay(w, log, desc.Locations[0].URI, first) {
		return
	}
	for _, loc := range desc.Locations[1:] {
		stream, err := h.openLocation(r, loc)
		if err != nil {
			// Headers are gone; all we can do is cut the transfer short.
			log.Error("Retrieval failed mid-image", "err", err, "uri", loc.URI)
			return
		}
		if !h.relay(w, log, loc.URI, stream) {
			return
		}
	}

	log.Debug("Image transfer complete")
}

// HandleImageInfo reports an image's metadata headers without its data.
//
// URL format: HEAD /v1/images/{image_id}
//
// The response carries the same X-Image-Meta-* headers and Content-Length
// as a data request would, and no body.
func (h *Handler) HandleImageInfo(w http.ResponseWriter, r *http.Request) {
	imageID := r.PathValue("image_id")
	if imageID == "" {
		http.Error(w, "Missing image ID in URL", http.StatusBadRequest)
		return
	}

	log := h.log.With(slog.String("imageId", imageID))

	desc, err := h.index.ImageMetadata(r.Context(), imageID)
	if err != nil {
		h.metadataFailed(w, log, imageID, err)
		return
	}

	writeImageHeaders(w, desc)
	w.WriteHeader(http.StatusOK)
}

// openLocation dispatches one location URI to the storage layer and
// counts the outcome.
func (h *Handler) openLocation(r *http.Request, loc interfaces.ImageLocation) (interfaces.ChunkStream, error) {
	scheme := uriScheme(loc.URI)

	stream, err := h.retriever.GetFromBackend(r.Context(), loc.URI, locationSize(loc))
	if err != nil {
		metrics.RetrievalsTotal.WithLabelValues(scheme, "error").Inc()
		return nil, err
	}
	metrics.RetrievalsTotal.WithLabelValues(scheme, "ok").Inc()
	return stream, nil
}

// relay copies one chunk stream to the client and closes it. It reports
// whether the response can continue with further locations.
func (h *Handler) relay(w http.ResponseWriter, log *slog.Logger, uri string, stream interfaces.ChunkStream) bool {
	defer stream.Close()
	metrics.InflightStreams.Inc()
	defer metrics.InflightStreams.Dec()

	scheme := uriScheme(uri)
	for {
		chunk, err := stream.Next()
		if err == io.EOF {
			return true
		}
		if err != nil {
			log.Error("Image stream failed mid-transfer", "err", err, "uri", uri)
			return false
		}

		if _, err := w.Write(chunk); err != nil {
			// The client went away; stop pulling from the backend.
			log.Debug("Client aborted image download", "err", err)
			return false
		}
		metrics.BytesStreamedTotal.WithLabelValues(scheme).Add(float64(len(chunk)))
	}
}

// metadataFailed translates an index lookup failure into a response.
func (h *Handler) metadataFailed(w http.ResponseWriter, log *slog.Logger, imageID string, err error) {
	if errors.Is(err, interfaces.ErrImageNotFound) {
		metrics.ImageRequestsTotal.WithLabelValues("404").Inc()
		http.Error(w, fmt.Sprintf("Image %s not found", imageID), http.StatusNotFound)
		return
	}

	log.Error("Metadata lookup failed", "err", err)
	metrics.ImageRequestsTotal.WithLabelValues("502").Inc()
	http.Error(w, "Image metadata unavailable", http.StatusBadGateway)
}

// retrievalFailed translates a pre-stream retrieval failure into a
// response. Error details stay in the logs: location URIs can embed
// credentials and must not be echoed to clients.
func (h *Handler) retrievalFailed(w http.ResponseWriter, log *slog.Logger, uri string, err error) {
	log.Error("Image retrieval failed", "err", err, "uri", uri)

	var ube *interfaces.UnsupportedBackendError
	var be *interfaces.BackendError
	if errors.As(err, &ube) || errors.As(err, &be) || errors.Is(err, interfaces.ErrInvalidLocationURI) {
		metrics.ImageRequestsTotal.WithLabelValues("502").Inc()
		http.Error(w, "Image data unavailable", http.StatusBadGateway)
		return
	}

	metrics.ImageRequestsTotal.WithLabelValues("500").Inc()
	http.Error(w, "Image data unavailable", http.StatusInternalServerError)
}

func writeImageHeaders(w http.ResponseWriter, desc *interfaces.ImageDescriptor) {
	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set(ImageIDHeader, desc.ID)
	if desc.Name != "" {
		w.Header().Set(ImageNameHeader, desc.Name)
	}
	if desc.Checksum != "" {
		w.Header().Set(ImageChecksumHeader, desc.Checksum)
	}
	if total := desc.TotalSize(); total >= 0 {
		w.Header().Set(ImageSizeHeader, strconv.FormatInt(total, 10))
		w.Header().Set("Content-Length", strconv.FormatInt(total, 10))
	}
}

// locationSize maps a recorded location size to the retrieval contract:
// non-positive records mean the size is unknown and verification is
// skipped.
func locationSize(loc interfaces.ImageLocation) int64 {
	if loc.Size <= 0 {
		return interfaces.SizeUnknown
	}
	return loc.Size
}

// uriScheme extracts the scheme for metrics labels without a full parse.
func uriScheme(uri string) string {
	if i := strings.Index(uri, "://"); i > 0 {
		return uri[:i]
	}
	return "unknown"
}

// Package main (cmd/imageserver) implements the image delivery server.
//
// The server exposes HTTP endpoints for fetching virtual machine image data
// and metadata. Image bytes are not stored by the server itself; each image
// is described by one or more storage location URIs, and the server streams
// the bytes through from whichever backend the URI scheme selects:
//
//   - file://   images on a local or mounted filesystem, confined to a
//     configured root directory
//   - http:// and https://   images served by a plain web server
//   - swift://   images in an OpenStack Swift object store, with credentials
//     embedded in the location URI
//   - s3://   images in an S3-compatible object store
//
// Image metadata comes from one of two sources, chosen by flags. A local
// JSON manifest (--image-manifest) is loaded once at startup and suits
// fixed fleets and test rigs. A remote metadata service (--index-url) is
// queried per request and suits deployments where the image catalog changes
// without restarts.
//
// The server implements graceful shutdown on receiving termination signals
// (SIGINT/SIGTERM) and supports health checks, metrics collection, and
// optional profiling endpoints. The /drain endpoint flips readiness off so
// load balancers stop routing new downloads while in-flight transfers
// complete.
//
// Example usage with a local manifest:
//
//	image-server --listen-addr=0.0.0.0:8080 \
//	    --image-manifest=/etc/images/manifest.json \
//	    --filesystem-root=/var/lib/images
//
// Example usage against a remote metadata service:
//
//	image-server --listen-addr=0.0.0.0:8080 \
//	    --index-url=http://image-registry.internal:9292 \
//	    --log-json
package main

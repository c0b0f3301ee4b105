/*
Package httpserver implements the HTTP server that delivers stored image
data to clients.

The server exposes a small read-only API: clients ask for an image by ID
and receive its raw bytes, assembled from the storage locations the image
metadata index lists for it. The heavy lifting of resolving and reading
locations lives in the storage package; this package owns request
handling, response semantics, health endpoints, and server lifecycle.

# API Endpoints

  - GET  /v1/images/{image_id} - Stream the image data
  - HEAD /v1/images/{image_id} - Image metadata headers, no body
  - GET  /livez    - Liveness check
  - GET  /readyz   - Readiness check (flips with drain/undrain)
  - GET  /drain    - Mark the server not ready
  - GET  /undrain  - Mark the server ready again
  - /debug         - pprof profiler (only with EnablePprof)

# Image Data Responses

An image descriptor may list several storage locations; their streams are
relayed back to back in listed order, so the client receives the
concatenation as one application/octet-stream body. Responses carry
X-Image-Meta-Id, X-Image-Meta-Name, X-Image-Meta-Checksum and
X-Image-Meta-Size headers where the descriptor provides values, plus
Content-Length when the total size is on record.

Failures detected before the first byte produce a proper error status:
404 for unknown IDs and dataless images, 502 when stored metadata cannot
be served (unregistered scheme, malformed location URI, size mismatch),
500 for environmental failures. Once streaming has begun the status is on
the wire, and a failure terminates the transfer early; clients detect the
truncation against Content-Length.

# Draining

A drained server answers image requests with 503 and reports not-ready on
/readyz, while in-flight transfers run to completion. This gives load
balancers a window to move traffic before shutdown.
*/
package httpserver

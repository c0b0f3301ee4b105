// Package common contains variables and helpers shared across the image
// delivery services: build metadata and logger setup.
package common

// PackageName is the service identifier used for metrics namespacing and
// log attribution.
const PackageName = "image-delivery-backend"

// Version is the service version. Overridden at build time:
//
//	go build -ldflags "-X github.com/halstead/image-delivery-backend/common.Version=v1.2.3"
var Version = "dev"

// Package registry provides the image metadata index implementations the
// delivery services resolve image IDs through.
//
// The index answers one question: given an image ID, which storage
// locations hold its data and what sizes are on record for them. The
// answer arrives as an interfaces.ImageDescriptor; fetching the actual
// bytes is the storage package's job.
//
// Two implementations are provided:
//
// Client talks to an external metadata service over HTTP. It expects a
// JSON descriptor from GET /v1/images/{id}/metadata and maps a 404 to
// interfaces.ErrImageNotFound.
//
// StaticIndex serves descriptors from a JSON manifest file loaded at
// startup. It exists for single-node deployments and development setups
// that have no metadata service to call. The manifest holds an "images"
// array of descriptors:
//
//	{
//	  "images": [
//	    {
//	      "id": "ubuntu-22.04",
//	      "name": "Ubuntu 22.04 server",
//	      "size": 2361393152,
//	      "locations": [
//	        {"uri": "file:///var/lib/imagedepot/ubuntu-22.04.img", "size": 2361393152}
//	      ]
//	    }
//	  ]
//	}
//
// MockImageIndex is a testify mock of the same interface for handler
// tests.
package registry

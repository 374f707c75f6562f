// Package sizegate decides whether a byte count fits the upload ceiling.
// Pure, no side effects. An unknown size is rejected: the transport will
// refuse oversized uploads anyway, so unknown is never trusted as small
// enough.
package sizegate

import (
	"fmt"

	"github.com/clipfetch/clipfetch/internal/domain/media/entities"
)

// Decision is the result of a size check
type Decision struct {
	Allowed bool
	Message string
}

const bytesPerMB = 1024 * 1024

// Evaluate checks a possibly-unknown byte count against the ceiling.
// Rejection messages carry the measured size in MB to two decimals when
// known.
func Evaluate(size entities.ByteSize, ceiling int64) Decision {
	if !size.Known {
		return Decision{
			Allowed: false,
			Message: "the file size could not be determined, refusing to download",
		}
	}

	if size.Bytes > ceiling {
		return Decision{
			Allowed: false,
			Message: fmt.Sprintf(
				"the file is larger than %.0f MB. File size: %.2f MB",
				float64(ceiling)/bytesPerMB,
				float64(size.Bytes)/bytesPerMB,
			),
		}
	}

	return Decision{Allowed: true}
}

package zosdatum

import (
	"errors"

	"github.com/rawbytedev/zosdatum/pkg/compactwire"
	"github.com/rawbytedev/zosdatum/pkg/decoder"
)

type ConvertOptions struct {
	// SkipErrors writes an error frame for a record that fails to decode
	// and moves on, when the framer knows record lengths.
	SkipErrors bool
}

// ConvertStats summarizes a Convert run.
type ConvertStats struct {
	Records int
	Skipped int
}

// Convert drains r into w, one data frame per record tagged with its
// stream offset.
func Convert(r *Reader, w *compactwire.Writer, opts ConvertOptions) (ConvertStats, error) {
	var stats ConvertStats
	for rec, err := range r.All() {
		if err != nil {
			var de *decoder.DecodeError
			if !opts.SkipErrors {
				return stats, err
			}
			if !errors.As(err, &de) || r.lost {
				// best effort, the stream error is what matters
				_ = w.WriteError(compactwire.CodeStream, err.Error())
				return stats, err
			}
			if werr := w.WriteError(compactwire.CodeDecode, err.Error()); werr != nil {
				return stats, werr
			}
			stats.Skipped++
			continue
		}
		if err := w.WriteRecord(rec, r.Offset()); err != nil {
			return stats, err
		}
		stats.Records++
	}
	return stats, nil
}

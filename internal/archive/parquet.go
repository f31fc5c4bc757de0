package archive

import (
	"bytes"
	"fmt"
	"time"

	"github.com/parquet-go/parquet-go"

	"github.com/viapip/pothos-todo-sub004/internal/history"
)

type ParquetEncodeResult struct {
	Data        []byte
	RecordCount int64
}

type parquetPattern struct {
	Pattern        string `parquet:"pattern"`
	Count          int64  `parquet:"count"`
	FirstSeq       int64  `parquet:"first_seq"`
	SnapshotUnixMs int64  `parquet:"snapshot_unix_ms"`
}

// EncodePatternsToParquet serializes a pattern snapshot. Rows keep the
// snapshot order, which is count descending.
func EncodePatternsToParquet(patterns []history.PatternCount, takenAt time.Time) (ParquetEncodeResult, error) {
	if len(patterns) == 0 {
		return ParquetEncodeResult{}, fmt.Errorf("patterns are required")
	}

	snapshotMs := takenAt.UTC().UnixMilli()
	rows := make([]parquetPattern, 0, len(patterns))
	for _, pattern := range patterns {
		rows = append(rows, parquetPattern{
			Pattern:        pattern.Pattern,
			Count:          pattern.Count,
			FirstSeq:       pattern.FirstSeq,
			SnapshotUnixMs: snapshotMs,
		})
	}

	buf := bytes.NewBuffer(nil)
	writer := parquet.NewGenericWriter[parquetPattern](buf)
	if _, err := writer.Write(rows); err != nil {
		return ParquetEncodeResult{}, fmt.Errorf("write parquet rows: %w", err)
	}
	if err := writer.Close(); err != nil {
		return ParquetEncodeResult{}, fmt.Errorf("close parquet writer: %w", err)
	}

	return ParquetEncodeResult{Data: buf.Bytes(), RecordCount: int64(len(rows))}, nil
}

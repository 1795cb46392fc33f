// Package source reads Claude Code JSONL transcripts into usage records.
package source

import (
	"bufio"
	"bytes"
	"errors"
	"io"
	"iter"
	"math"
	"os"
	"time"

	"github.com/theirongolddev/burnline/internal/logging"
	"github.com/theirongolddev/burnline/internal/model"

	"github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"
)

// MaxTokenCount caps a single token field so that sums over a session
// stay far from int64 overflow.
const MaxTokenCount = math.MaxInt64 / 8

const initialBuffer = 256 * 1024

// maxLineSize bounds one transcript line. Tool results with inline images
// can push single lines well past a few MB; longer lines are skipped.
var maxLineSize = 32 * 1024 * 1024

// timestampLayouts are tried in order. Layouts without a zone are read as
// local time.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05",
}

// Records returns a lazy sequence of the records in the transcript at path,
// one per non-empty line that parses. Malformed lines are skipped. A missing
// or unreadable file yields an empty sequence.
func Records(path string, log logrus.FieldLogger) iter.Seq[model.Record] {
	log = logging.OrDiscard(log)

	return func(yield func(model.Record) bool) {
		f, err := os.Open(path)
		if err != nil {
			log.WithError(err).WithField("path", path).Debug("transcript unavailable")
			return
		}
		defer func() { _ = f.Close() }()

		r := bufio.NewReaderSize(f, initialBuffer)

		var parsed, skipped, oversized int
		defer func() {
			log.WithFields(logrus.Fields{
				"path":      path,
				"records":   parsed,
				"skipped":   skipped,
				"oversized": oversized,
			}).Debug("transcript read")
		}()

		var buf []byte
		for {
			line, tooLong, err := readLine(r, buf[:0])
			buf = line
			switch {
			case tooLong:
				oversized++
			case len(bytes.TrimSpace(line)) > 0:
				rec, ok := ParseLine(line)
				if !ok {
					skipped++
					break
				}
				parsed++
				if !yield(rec) {
					return
				}
			}

			if err != nil {
				if !errors.Is(err, io.EOF) {
					log.WithError(err).WithField("path", path).Debug("transcript read stopped early")
				}
				return
			}
		}
	}
}

// readLine appends the next line from r to buf, newline included. A line
// longer than maxLineSize is consumed to its end and reported as too long;
// the returned bytes are then a truncated prefix and must not be parsed.
func readLine(r *bufio.Reader, buf []byte) ([]byte, bool, error) {
	tooLong := false
	for {
		chunk, err := r.ReadSlice('\n')
		if !tooLong {
			if len(buf)+len(chunk) > maxLineSize {
				tooLong = true
			} else {
				buf = append(buf, chunk...)
			}
		}
		if errors.Is(err, bufio.ErrBufferFull) {
			continue
		}
		return buf, tooLong, err
	}
}

// ParseLine parses a single transcript line. It reports false for blank
// lines, invalid JSON and non-object values.
func ParseLine(line []byte) (model.Record, bool) {
	line = bytes.TrimSpace(line)
	if len(line) == 0 || line[0] != '{' || !gjson.ValidBytes(line) {
		return model.Record{}, false
	}

	root := gjson.ParseBytes(line)
	msg := root.Get("message")

	var rec model.Record

	if ts := root.Get("timestamp"); ts.Type == gjson.String {
		rec.RawTimestamp = ts.Str
		rec.Timestamp = parseTimestamp(ts.Str)
	}

	if u := msg.Get("usage"); u.IsObject() {
		rec.Usage = &model.Usage{
			InputTokens:         tokenCount(u.Get("input_tokens")),
			OutputTokens:        tokenCount(u.Get("output_tokens")),
			CacheCreationTokens: tokenCount(u.Get("cache_creation_input_tokens")),
			CacheReadTokens:     tokenCount(u.Get("cache_read_input_tokens")),
		}
		rec.UsageKey = gjson.Get(u.Raw, "@ugly").Raw
	}

	if c := root.Get("costUSD"); c.Type == gjson.Number {
		v := c.Float()
		rec.CostUSD = &v
	}

	rec.IsSidechain = root.Get("isSidechain").Type == gjson.True
	rec.Model = extractModel(root, msg)
	rec.Role = classifyRole(
		firstString(root.Get("type"), msg.Get("role"), msg.Get("type")),
		rec.Usage != nil,
	)

	return rec, true
}

// classifyRole maps a type marker to a Role. Unrecognized markers on records
// that carry usage count as assistant responses.
func classifyRole(marker string, hasUsage bool) model.Role {
	switch marker {
	case "user", "human":
		return model.RoleUser
	case "assistant", "ai":
		return model.RoleAssistant
	}
	if hasUsage {
		return model.RoleAssistant
	}
	return model.RoleUnknown
}

// extractModel finds the model identifier: top-level "model", then
// message.model (string or object with id), then "model_id".
func extractModel(root, msg gjson.Result) string {
	if m := root.Get("model"); m.Type == gjson.String && m.Str != "" {
		return m.Str
	}
	if m := msg.Get("model"); m.Exists() {
		if m.Type == gjson.String && m.Str != "" {
			return m.Str
		}
		if id := m.Get("id"); id.Type == gjson.String && id.Str != "" {
			return id.Str
		}
	}
	if m := root.Get("model_id"); m.Type == gjson.String && m.Str != "" {
		return m.Str
	}
	return ""
}

func firstString(results ...gjson.Result) string {
	for _, r := range results {
		if r.Type == gjson.String && r.Str != "" {
			return r.Str
		}
	}
	return ""
}

// tokenCount accepts only numeric, non-negative counts, capped at
// MaxTokenCount.
func tokenCount(r gjson.Result) int64 {
	if r.Type != gjson.Number {
		return 0
	}
	if r.Num >= MaxTokenCount {
		return MaxTokenCount
	}
	n := r.Int()
	if n < 0 {
		return 0
	}
	return min(n, MaxTokenCount)
}

func parseTimestamp(s string) time.Time {
	for _, layout := range timestampLayouts {
		var (
			ts  time.Time
			err error
		)
		if layout == time.RFC3339Nano {
			ts, err = time.Parse(layout, s)
		} else {
			ts, err = time.ParseInLocation(layout, s, time.Local)
		}
		if err == nil {
			return ts
		}
	}
	return time.Time{}
}
